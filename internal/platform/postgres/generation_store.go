package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/resumeq/internal/domain"
	"github.com/phrazzld/resumeq/internal/platform/logger"
	"github.com/phrazzld/resumeq/internal/store"
)

// clearBatchSize bounds the number of ids per UPDATE in ClearFileURLs.
const clearBatchSize = 500

const generationColumns = `id, user_id, analysis_id, status, rewritten_text, docx_url, pdf_url,
		generation_model, created_at, completed_at`

// PostgresGenerationStore implements store.GenerationStore
// using a PostgreSQL database as the storage backend.
type PostgresGenerationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresGenerationStore creates a GenerationStore over db, which may be
// a connection pool or a transaction. If logger is nil, a default logger is used.
func NewPostgresGenerationStore(db store.DBTX, logger *slog.Logger) *PostgresGenerationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresGenerationStore{
		db:     db,
		logger: logger.With(slog.String("component", "generation_store")),
	}
}

// Ensure PostgresGenerationStore implements store.GenerationStore interface
var _ store.GenerationStore = (*PostgresGenerationStore)(nil)

// WithTx implements store.GenerationStore.WithTx
func (s *PostgresGenerationStore) WithTx(tx *sql.Tx) store.GenerationStore {
	return &PostgresGenerationStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.GenerationStore.Create
func (s *PostgresGenerationStore) Create(ctx context.Context, g *domain.Generation) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := g.Validate(); err != nil {
		log.Warn("generation validation failed during create",
			slog.String("error", err.Error()),
			slog.String("generation_id", g.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO resume_generations (id, user_id, analysis_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query, g.ID, g.UserID, g.AnalysisID, string(g.Status), g.CreatedAt)
	if err != nil {
		log.Error("failed to create generation",
			slog.String("error", err.Error()),
			slog.String("generation_id", g.ID.String()))
		return MapError(err)
	}
	return nil
}

// GetByID implements store.GenerationStore.GetByID
func (s *PostgresGenerationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM resume_generations WHERE id = $1`
	return s.getOne(ctx, query, id)
}

// GetForUser implements store.GenerationStore.GetForUser
func (s *PostgresGenerationStore) GetForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM resume_generations WHERE id = $1 AND user_id = $2`
	return s.getOne(ctx, query, id, userID)
}

func (s *PostgresGenerationStore) getOne(ctx context.Context, query string, args ...any) (*domain.Generation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	g, err := scanGeneration(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrGenerationNotFound
		}
		log.Error("failed to get generation",
			slog.String("error", err.Error()),
			slog.Any("args", args))
		return nil, MapError(err)
	}
	return g, nil
}

// UpdateStatus implements store.GenerationStore.UpdateStatus
func (s *PostgresGenerationStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.GenerationStatus) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !status.Valid() {
		return domain.ErrInvalidGenerationStatus
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE resume_generations SET status = $1 WHERE id = $2`,
		string(status), id)
	if err != nil {
		log.Error("failed to update generation status",
			slog.String("error", err.Error()),
			slog.String("generation_id", id.String()),
			slog.String("status", string(status)))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrGenerationNotFound); err != nil {
		return err
	}

	log.Debug("generation status updated",
		slog.String("generation_id", id.String()),
		slog.String("status", string(status)))
	return nil
}

// TransitionStatus implements store.GenerationStore.TransitionStatus
func (s *PostgresGenerationStore) TransitionStatus(
	ctx context.Context,
	id uuid.UUID,
	from []domain.GenerationStatus,
	to domain.GenerationStatus,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !to.Valid() || len(from) == 0 {
		return false, domain.ErrInvalidGenerationStatus
	}

	args := []any{string(to), id}
	placeholders := make([]string, len(from))
	for i, st := range from {
		if !st.Valid() {
			return false, domain.ErrInvalidGenerationStatus
		}
		args = append(args, string(st))
		placeholders[i] = fmt.Sprintf("$%d", i+3)
	}

	query := `UPDATE resume_generations SET status = $1 WHERE id = $2 AND status IN (` +
		strings.Join(placeholders, ", ") + `)`
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to transition generation status",
			slog.String("error", err.Error()),
			slog.String("generation_id", id.String()),
			slog.String("status", string(to)))
		return false, MapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// Complete implements store.GenerationStore.Complete
func (s *PostgresGenerationStore) Complete(ctx context.Context, id uuid.UUID, r domain.GenerationResult) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE resume_generations
		SET status = $1, rewritten_text = $2, docx_url = $3, pdf_url = $4,
			generation_model = $5, completed_at = $6
		WHERE id = $7
	`
	result, err := s.db.ExecContext(ctx, query,
		string(domain.GenerationStatusCompleted),
		r.RewrittenText,
		r.DocxURL,
		r.PDFURL,
		r.GenerationModel,
		r.CompletedAt.UTC(),
		id,
	)
	if err != nil {
		log.Error("failed to complete generation",
			slog.String("error", err.Error()),
			slog.String("generation_id", id.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrGenerationNotFound)
}

// MarkFailed implements store.GenerationStore.MarkFailed
func (s *PostgresGenerationStore) MarkFailed(ctx context.Context, id uuid.UUID, at time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`UPDATE resume_generations SET status = $1, completed_at = $2 WHERE id = $3`,
		string(domain.GenerationStatusFailed), at.UTC(), id)
	if err != nil {
		log.Error("failed to mark generation failed",
			slog.String("error", err.Error()),
			slog.String("generation_id", id.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrGenerationNotFound)
}

// ListExpired implements store.GenerationStore.ListExpired
func (s *PostgresGenerationStore) ListExpired(ctx context.Context, cutoff time.Time) ([]*domain.Generation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + generationColumns + `
		FROM resume_generations
		WHERE status = $1 AND created_at < $2
			AND (docx_url IS NOT NULL OR pdf_url IS NOT NULL)
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, string(domain.GenerationStatusCompleted), cutoff.UTC())
	if err != nil {
		log.Error("failed to query expired generations",
			slog.String("error", err.Error()),
			slog.Time("cutoff", cutoff))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var generations []*domain.Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		generations = append(generations, g)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	log.Debug("expired generations loaded",
		slog.Int("count", len(generations)),
		slog.Time("cutoff", cutoff))
	return generations, nil
}

// ClearFileURLs implements store.GenerationStore.ClearFileURLs
func (s *PostgresGenerationStore) ClearFileURLs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var total int64
	for start := 0; start < len(ids); start += clearBatchSize {
		end := start + clearBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		placeholders := make([]string, len(batch))
		args := make([]any, len(batch))
		for i, id := range batch {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args[i] = id
		}

		query := `UPDATE resume_generations SET docx_url = NULL, pdf_url = NULL WHERE id IN (` +
			strings.Join(placeholders, ", ") + `)`
		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			log.Error("failed to clear generation file urls",
				slog.String("error", err.Error()),
				slog.Int("batch_size", len(batch)))
			return total, MapError(err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("failed to get rows affected: %w", err)
		}
		total += n
	}
	return total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row rowScanner) (*domain.Generation, error) {
	var (
		g               domain.Generation
		status          string
		rewrittenText   sql.NullString
		docxURL         sql.NullString
		pdfURL          sql.NullString
		generationModel sql.NullString
		completedAt     sql.NullTime
	)

	if err := row.Scan(
		&g.ID,
		&g.UserID,
		&g.AnalysisID,
		&status,
		&rewrittenText,
		&docxURL,
		&pdfURL,
		&generationModel,
		&g.CreatedAt,
		&completedAt,
	); err != nil {
		return nil, err
	}

	g.Status = domain.GenerationStatus(status)
	g.RewrittenText = rewrittenText.String
	g.DocxURL = docxURL.String
	g.PDFURL = pdfURL.String
	g.GenerationModel = generationModel.String
	if completedAt.Valid {
		t := completedAt.Time
		g.CompletedAt = &t
	}
	return &g, nil
}
