package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/resumeq/internal/domain"
)

// GenerationStore defines persistence for resume generation records.
type GenerationStore interface {
	// Create saves a new generation.
	Create(ctx context.Context, generation *domain.Generation) error

	// GetByID retrieves a generation by its unique ID.
	// Returns ErrGenerationNotFound if the generation does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Generation, error)

	// GetForUser retrieves a generation owned by userID.
	// Returns ErrGenerationNotFound if it does not exist or belongs to someone else.
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Generation, error)

	// UpdateStatus sets the status of a generation. Setting the same status
	// twice is safe. Returns ErrGenerationNotFound if it does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.GenerationStatus) error

	// TransitionStatus sets the status to `to` only if the current status is
	// one of `from`. It reports whether the row changed; false means another
	// caller moved the generation first or it does not exist.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []domain.GenerationStatus, to domain.GenerationStatus) (bool, error)

	// Complete records the outputs of a successful generation and sets its
	// status to completed.
	Complete(ctx context.Context, id uuid.UUID, result domain.GenerationResult) error

	// MarkFailed sets the status to failed and stamps completedAt.
	MarkFailed(ctx context.Context, id uuid.UUID, at time.Time) error

	// ListExpired returns completed generations created before cutoff.
	ListExpired(ctx context.Context, cutoff time.Time) ([]*domain.Generation, error)

	// ClearFileURLs nulls the stored file URLs of the given generations and
	// returns how many rows changed.
	ClearFileURLs(ctx context.Context, ids []uuid.UUID) (int64, error)

	// WithTx returns a GenerationStore that runs its queries in tx.
	WithTx(tx *sql.Tx) GenerationStore
}

// AnalysisStore reads resume analyses.
type AnalysisStore interface {
	// GetByID returns ErrAnalysisNotFound if the analysis does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Analysis, error)
}

// ProfileStore reads user profiles.
type ProfileStore interface {
	// GetByID returns ErrProfileNotFound if the profile does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
}
