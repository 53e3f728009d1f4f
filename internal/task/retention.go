package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/resumeq/internal/domain"
	"github.com/phrazzld/resumeq/internal/platform/metrics"
	"github.com/phrazzld/resumeq/internal/queue"
	"github.com/phrazzld/resumeq/internal/store"
)

// RetentionConfig controls the retention sweep.
type RetentionConfig struct {
	// Months is how long generated files are kept.
	Months int
	// Interval is the time between sweeps after the startup sweep.
	Interval time.Duration
}

// DefaultRetentionConfig keeps files for six months and sweeps daily.
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{Months: 6, Interval: 24 * time.Hour}
}

// SweepResult summarises one retention sweep.
type SweepResult struct {
	Expired      int
	JobsEnqueued int
	Cleared      int64
}

// RetentionSweeper finds completed generations past the retention period,
// schedules deletion of their files and clears their file URLs.
type RetentionSweeper struct {
	generations store.GenerationStore
	db          *sql.DB
	jobs        Enqueuer
	config      RetentionConfig
	logger      *slog.Logger
	now         func() time.Time
}

// NewRetentionSweeper creates a sweeper. When db is non-nil the URL clearing
// runs inside a transaction.
func NewRetentionSweeper(
	generations store.GenerationStore,
	db *sql.DB,
	jobs Enqueuer,
	config RetentionConfig,
	logger *slog.Logger,
) (*RetentionSweeper, error) {
	if generations == nil {
		return nil, ErrNilStore
	}
	if jobs == nil {
		return nil, ErrNilQueue
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	defaults := DefaultRetentionConfig()
	if config.Months <= 0 {
		config.Months = defaults.Months
	}
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	return &RetentionSweeper{
		generations: generations,
		db:          db,
		jobs:        jobs,
		config:      config,
		logger:      logger.With("component", "retention"),
		now:         time.Now,
	}, nil
}

// Run sweeps once immediately and then every Interval until ctx is done.
// Sweep failures are logged and do not stop the schedule.
func (s *RetentionSweeper) Run(ctx context.Context) {
	s.sweepAndLog(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

func (s *RetentionSweeper) sweepAndLog(ctx context.Context) {
	res, err := s.Sweep(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.ErrorContext(ctx, "retention sweep failed", "error", err)
		}
		return
	}
	s.logger.InfoContext(ctx, "retention sweep finished",
		"expired", res.Expired,
		"jobs_enqueued", res.JobsEnqueued,
		"cleared", res.Cleared)
}

// Sweep runs one retention pass. One file-deletion job is enqueued per user,
// in the order users first appear among the expired generations. URLs are
// cleared only after every job was enqueued. The two steps are not atomic:
// a crash in between leaves URLs pointing at files queued for deletion.
func (s *RetentionSweeper) Sweep(ctx context.Context) (*SweepResult, error) {
	cutoff := s.now().UTC().AddDate(0, -s.config.Months, 0)

	expired, err := s.generations.ListExpired(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired generations: %w", err)
	}
	res := &SweepResult{Expired: len(expired)}
	if len(expired) == 0 {
		s.logger.DebugContext(ctx, "no expired files found", "cutoff", cutoff)
		return res, nil
	}

	var (
		users  []uuid.UUID
		byUser = make(map[uuid.UUID][]string)
		ids    = make([]uuid.UUID, 0, len(expired))
	)
	for _, g := range expired {
		ids = append(ids, g.ID)
		if _, seen := byUser[g.UserID]; !seen {
			users = append(users, g.UserID)
			byUser[g.UserID] = []string{}
		}
		byUser[g.UserID] = append(byUser[g.UserID], g.StoragePaths()...)
	}

	for _, userID := range users {
		_, err := FileDeletionQueue.Enqueue(ctx, s.jobs, domain.FileDeletionJob{
			UserID:    userID.String(),
			FilePaths: byUser[userID],
			Reason:    domain.RetentionReason,
		}, queue.Options{})
		if err != nil {
			return res, fmt.Errorf("failed to enqueue file deletion for user %s: %w", userID, err)
		}
		res.JobsEnqueued++
		metrics.Increment("retention.jobs_enqueued")
	}

	res.Cleared, err = s.clearURLs(ctx, ids)
	if err != nil {
		return res, fmt.Errorf("failed to clear file urls: %w", err)
	}
	return res, nil
}

func (s *RetentionSweeper) clearURLs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if s.db == nil {
		return s.generations.ClearFileURLs(ctx, ids)
	}

	var cleared int64
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		n, err := s.generations.WithTx(tx).ClearFileURLs(ctx, ids)
		cleared = n
		return err
	})
	return cleared, err
}
