package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/resumeq/internal/domain"
	"github.com/phrazzld/resumeq/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generationRowColumns = []string{
	"id", "user_id", "analysis_id", "status", "rewritten_text", "docx_url", "pdf_url",
	"generation_model", "created_at", "completed_at",
}

func newMockGenerationStore(t *testing.T) (*PostgresGenerationStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewPostgresGenerationStore(db, nil), mock
}

func TestNewPostgresGenerationStore(t *testing.T) {
	assert.Panics(t, func() {
		NewPostgresGenerationStore(nil, nil)
	})

	s := NewPostgresGenerationStore(&sql.DB{}, nil)
	assert.NotNil(t, s.logger)
}

func TestPostgresGenerationStore_GetForUser(t *testing.T) {
	ctx := context.Background()
	id, userID, analysisID := uuid.New(), uuid.New(), uuid.New()
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	completed := created.Add(time.Minute)

	t.Run("found", func(t *testing.T) {
		s, mock := newMockGenerationStore(t)

		rows := sqlmock.NewRows(generationRowColumns).AddRow(
			id.String(), userID.String(), analysisID.String(), "completed",
			"rewritten", "https://cdn/resumes/u/a.docx", "https://cdn/resumes/u/a.pdf",
			"gemini-2.0-flash", created, completed,
		)
		mock.ExpectQuery(regexp.QuoteMeta("FROM resume_generations WHERE id = $1 AND user_id = $2")).
			WithArgs(id, userID).
			WillReturnRows(rows)

		g, err := s.GetForUser(ctx, id, userID)
		require.NoError(t, err)
		assert.Equal(t, id, g.ID)
		assert.Equal(t, domain.GenerationStatusCompleted, g.Status)
		assert.Equal(t, "https://cdn/resumes/u/a.pdf", g.PDFURL)
		require.NotNil(t, g.CompletedAt)
		assert.True(t, completed.Equal(*g.CompletedAt))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("null columns", func(t *testing.T) {
		s, mock := newMockGenerationStore(t)

		rows := sqlmock.NewRows(generationRowColumns).AddRow(
			id.String(), userID.String(), analysisID.String(), "pending",
			nil, nil, nil, nil, created, nil,
		)
		mock.ExpectQuery("FROM resume_generations").WillReturnRows(rows)

		g, err := s.GetForUser(ctx, id, userID)
		require.NoError(t, err)
		assert.Empty(t, g.DocxURL)
		assert.Nil(t, g.CompletedAt)
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newMockGenerationStore(t)

		mock.ExpectQuery("FROM resume_generations").WillReturnError(sql.ErrNoRows)

		_, err := s.GetForUser(ctx, id, userID)
		assert.ErrorIs(t, err, store.ErrGenerationNotFound)
	})
}

func TestPostgresGenerationStore_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("updated", func(t *testing.T) {
		s, mock := newMockGenerationStore(t)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE resume_generations SET status = $1 WHERE id = $2")).
			WithArgs("processing", id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.UpdateStatus(ctx, id, domain.GenerationStatusProcessing))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		s, mock := newMockGenerationStore(t)

		mock.ExpectExec("UPDATE resume_generations").WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, s.UpdateStatus(ctx, id, domain.GenerationStatusProcessing), store.ErrGenerationNotFound)
	})

	t.Run("invalid status", func(t *testing.T) {
		s, _ := newMockGenerationStore(t)

		assert.ErrorIs(t, s.UpdateStatus(ctx, id, "queued"), domain.ErrInvalidGenerationStatus)
	})
}

func TestPostgresGenerationStore_TransitionStatus(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	from := []domain.GenerationStatus{domain.GenerationStatusPending, domain.GenerationStatusFailed}

	t.Run("claimed", func(t *testing.T) {
		s, mock := newMockGenerationStore(t)

		mock.ExpectExec(regexp.QuoteMeta(
			"UPDATE resume_generations SET status = $1 WHERE id = $2 AND status IN ($3, $4)")).
			WithArgs("processing", id, "pending", "failed").
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := s.TransitionStatus(ctx, id, from, domain.GenerationStatusProcessing)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("status already moved", func(t *testing.T) {
		s, mock := newMockGenerationStore(t)

		mock.ExpectExec("UPDATE resume_generations").WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := s.TransitionStatus(ctx, id, from, domain.GenerationStatusProcessing)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("invalid statuses", func(t *testing.T) {
		s, _ := newMockGenerationStore(t)

		_, err := s.TransitionStatus(ctx, id, from, "queued")
		assert.ErrorIs(t, err, domain.ErrInvalidGenerationStatus)
		_, err = s.TransitionStatus(ctx, id, nil, domain.GenerationStatusProcessing)
		assert.ErrorIs(t, err, domain.ErrInvalidGenerationStatus)
	})

	t.Run("database error", func(t *testing.T) {
		s, mock := newMockGenerationStore(t)

		mock.ExpectExec("UPDATE resume_generations").WillReturnError(errors.New("connection reset"))

		_, err := s.TransitionStatus(ctx, id, from, domain.GenerationStatusProcessing)
		assert.Error(t, err)
	})
}

func TestPostgresGenerationStore_CompleteAndFail(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	at := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	s, mock := newMockGenerationStore(t)

	mock.ExpectExec(regexp.QuoteMeta("SET status = $1, rewritten_text = $2")).
		WithArgs("completed", "text", "d-url", "p-url", "gemini", at, id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET status = $1, completed_at = $2 WHERE id = $3")).
		WithArgs("failed", at, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Complete(ctx, id, domain.GenerationResult{
		RewrittenText:   "text",
		DocxURL:         "d-url",
		PDFURL:          "p-url",
		GenerationModel: "gemini",
		CompletedAt:     at,
	}))
	require.NoError(t, s.MarkFailed(ctx, id, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGenerationStore_ListExpired(t *testing.T) {
	ctx := context.Background()
	cutoff := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	s, mock := newMockGenerationStore(t)

	rows := sqlmock.NewRows(generationRowColumns).
		AddRow(uuid.NewString(), uuid.NewString(), uuid.NewString(), "completed",
			"t", "https://x/resumes/u1/a.docx", "https://x/resumes/u1/a.pdf", "m", cutoff.Add(-time.Hour), cutoff).
		AddRow(uuid.NewString(), uuid.NewString(), uuid.NewString(), "completed",
			"t", nil, "https://x/resumes/u2/b.pdf", "m", cutoff.Add(-2*time.Hour), cutoff)
	// Already swept generations have no URLs left and are not selected again.
	mock.ExpectQuery(regexp.QuoteMeta("AND (docx_url IS NOT NULL OR pdf_url IS NOT NULL)")).
		WithArgs("completed", cutoff).
		WillReturnRows(rows)

	gens, err := s.ListExpired(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, gens, 2)
	assert.Equal(t, []string{"u2/b.pdf"}, gens[1].StoragePaths())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGenerationStore_ClearFileURLs(t *testing.T) {
	ctx := context.Background()

	t.Run("batches ids", func(t *testing.T) {
		s, mock := newMockGenerationStore(t)

		ids := make([]uuid.UUID, clearBatchSize+2)
		for i := range ids {
			ids[i] = uuid.New()
		}

		mock.ExpectExec(regexp.QuoteMeta("SET docx_url = NULL, pdf_url = NULL WHERE id IN ($1, $2")).
			WillReturnResult(sqlmock.NewResult(0, clearBatchSize))
		mock.ExpectExec(regexp.QuoteMeta("WHERE id IN ($1, $2)")).
			WithArgs(ids[clearBatchSize], ids[clearBatchSize+1]).
			WillReturnResult(sqlmock.NewResult(0, 2))

		n, err := s.ClearFileURLs(ctx, ids)
		require.NoError(t, err)
		assert.Equal(t, int64(clearBatchSize+2), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no ids", func(t *testing.T) {
		s, mock := newMockGenerationStore(t)

		n, err := s.ClearFileURLs(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		s, mock := newMockGenerationStore(t)

		mock.ExpectExec("UPDATE resume_generations").WillReturnError(errors.New("connection reset"))

		_, err := s.ClearFileURLs(ctx, []uuid.UUID{uuid.New()})
		assert.Error(t, err)
	})
}

func TestPostgresGenerationStore_Create(t *testing.T) {
	ctx := context.Background()
	g := &domain.Generation{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		AnalysisID: uuid.New(),
		Status:     domain.GenerationStatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	t.Run("foreign key violation", func(t *testing.T) {
		s, mock := newMockGenerationStore(t)

		mock.ExpectExec("INSERT INTO resume_generations").
			WillReturnError(&pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "resume_generations_analysis_id_fkey"})

		err := s.Create(ctx, g)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("invalid entity", func(t *testing.T) {
		s, _ := newMockGenerationStore(t)

		bad := *g
		bad.Status = "queued"
		assert.ErrorIs(t, s.Create(ctx, &bad), store.ErrInvalidEntity)
	})

	t.Run("inside transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO resume_generations").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		s := NewPostgresGenerationStore(db, nil)
		err = store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			return s.WithTx(tx).Create(ctx, g)
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
