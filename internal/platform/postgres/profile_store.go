package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/resumeq/internal/domain"
	"github.com/phrazzld/resumeq/internal/platform/logger"
	"github.com/phrazzld/resumeq/internal/store"
)

// PostgresProfileStore implements store.ProfileStore.
type PostgresProfileStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProfileStore creates a ProfileStore over db.
func NewPostgresProfileStore(db store.DBTX, logger *slog.Logger) *PostgresProfileStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresProfileStore{
		db:     db,
		logger: logger.With(slog.String("component", "profile_store")),
	}
}

var _ store.ProfileStore = (*PostgresProfileStore)(nil)

// GetByID implements store.ProfileStore.GetByID
func (s *PostgresProfileStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, email, full_name, subscription_status, created_at
		FROM profiles
		WHERE id = $1
	`

	var (
		p        domain.Profile
		fullName sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Email,
		&fullName,
		&p.SubscriptionStatus,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrProfileNotFound
		}
		log.Error("failed to get profile",
			slog.String("error", err.Error()),
			slog.String("profile_id", id.String()))
		return nil, MapError(err)
	}
	p.FullName = fullName.String
	return &p, nil
}
