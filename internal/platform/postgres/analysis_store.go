package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/resumeq/internal/domain"
	"github.com/phrazzld/resumeq/internal/platform/logger"
	"github.com/phrazzld/resumeq/internal/store"
)

// PostgresAnalysisStore implements store.AnalysisStore.
type PostgresAnalysisStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAnalysisStore creates an AnalysisStore over db.
func NewPostgresAnalysisStore(db store.DBTX, logger *slog.Logger) *PostgresAnalysisStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAnalysisStore{
		db:     db,
		logger: logger.With(slog.String("component", "analysis_store")),
	}
}

var _ store.AnalysisStore = (*PostgresAnalysisStore)(nil)

// GetByID implements store.AnalysisStore.GetByID
func (s *PostgresAnalysisStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Analysis, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, original_filename, original_text, job_description,
			analysis_result, ats_score, created_at
		FROM resume_analyses
		WHERE id = $1
	`

	var (
		a              domain.Analysis
		userID         uuid.NullUUID
		jobDescription sql.NullString
		rawResult      []byte
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID,
		&userID,
		&a.OriginalFilename,
		&a.OriginalText,
		&jobDescription,
		&rawResult,
		&a.ATSScore,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("analysis not found", slog.String("analysis_id", id.String()))
			return nil, store.ErrAnalysisNotFound
		}
		log.Error("failed to get analysis",
			slog.String("error", err.Error()),
			slog.String("analysis_id", id.String()))
		return nil, MapError(err)
	}

	if userID.Valid {
		a.UserID = userID.UUID
	}
	a.JobDescription = jobDescription.String
	if len(rawResult) > 0 {
		if err := json.Unmarshal(rawResult, &a.Result); err != nil {
			return nil, fmt.Errorf("%w: analysis_result: %v", store.ErrInvalidEntity, err)
		}
	}
	return &a, nil
}
