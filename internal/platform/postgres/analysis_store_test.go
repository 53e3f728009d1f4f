package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/resumeq/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresAnalysisStore_GetByID(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	columns := []string{
		"id", "user_id", "original_filename", "original_text", "job_description",
		"analysis_result", "ats_score", "created_at",
	}

	t.Run("decodes analysis result", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		result := `{"atsScore":62,"keywordAnalysis":{"found":["go"],"missing":["kubernetes","grpc"]},` +
			`"formatting":{"issues":["tables"],"score":70,"suggestions":[]},"recommendations":[]}`
		mock.ExpectQuery("FROM resume_analyses").
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(
				id.String(), nil, "cv.pdf", "original text", "Backend engineer",
				[]byte(result), 62, time.Now(),
			))

		a, err := NewPostgresAnalysisStore(db, nil).GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, uuid.Nil, a.UserID)
		assert.Equal(t, "Backend engineer", a.JobDescription)
		assert.Equal(t, 62, a.Result.ATSScore)
		assert.Equal(t, []string{"kubernetes", "grpc"}, a.Result.KeywordAnalysis.Missing)
		assert.Equal(t, []string{"tables"}, a.Result.Formatting.Issues)
	})

	t.Run("corrupt json", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectQuery("FROM resume_analyses").
			WillReturnRows(sqlmock.NewRows(columns).AddRow(
				id.String(), nil, "cv.pdf", "text", nil, []byte("{"), 0, time.Now(),
			))

		_, err = NewPostgresAnalysisStore(db, nil).GetByID(ctx, id)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectQuery("FROM resume_analyses").WillReturnError(sql.ErrNoRows)

		_, err = NewPostgresAnalysisStore(db, nil).GetByID(ctx, id)
		assert.ErrorIs(t, err, store.ErrAnalysisNotFound)
	})
}

func TestPostgresProfileStore_GetByID(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM profiles").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "full_name", "subscription_status", "created_at"}).
			AddRow(id.String(), "ada@example.com", nil, "free", time.Now()))
	mock.ExpectQuery("FROM profiles").WillReturnError(sql.ErrNoRows)

	s := NewPostgresProfileStore(db, nil)
	p, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", p.Email)
	assert.Empty(t, p.FullName)

	_, err = s.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrProfileNotFound)
}

func TestMigrate_UnknownCommand(t *testing.T) {
	err := Migrate(context.Background(), nil, "sideways", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migration command")
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}
