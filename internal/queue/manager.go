package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/resumeq/internal/platform/metrics"
)

// promoteBatch bounds how many due delayed ids are read per range query.
const promoteBatch = 100

// ManagerConfig holds the retry policy applied by a Manager.
type ManagerConfig struct {
	// DefaultMaxAttempts applies when AddJob is called without MaxAttempts.
	// If zero or negative, DefaultMaxAttempts (3) is used.
	DefaultMaxAttempts int

	// Backoff schedules retries after FailJob.
	Backoff Backoff
}

// DefaultManagerConfig returns a ManagerConfig with reasonable defaults
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		DefaultMaxAttempts: DefaultMaxAttempts,
		Backoff:            Backoff{Base: DefaultBaseBackoff, Max: DefaultMaxBackoff},
	}
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithClock replaces time.Now, letting tests move time forward.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager implements the queue protocol on top of a Store: enqueue, lease,
// complete, fail with backoff, dead-letter and stats. It holds no job state of
// its own; the Store is the single source of truth, so any number of Managers
// in any number of processes may share one Store.
type Manager struct {
	store  Store
	config ManagerConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates a Manager over store.
func NewManager(store Store, config ManagerConfig, logger *slog.Logger, opts ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if config.DefaultMaxAttempts <= 0 {
		config.DefaultMaxAttempts = DefaultMaxAttempts
	}

	m := &Manager{
		store:  store,
		config: config,
		logger: logger.With("component", "queue_manager"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Now returns the manager's current time.
func (m *Manager) Now() time.Time {
	return m.now()
}

// AddJob creates a pending job holding payload and makes it visible on queue,
// either immediately or, when opts.Delay is positive, once the delay elapses.
// The record is persisted before its id becomes visible to consumers.
func (m *Manager) AddJob(ctx context.Context, queue Name, payload any, opts Options) (*Job, error) {
	if !queue.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQueue, queue)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = m.config.DefaultMaxAttempts
	}

	now := m.now().UTC()
	job := &Job{
		ID:          uuid.NewString(),
		Queue:       queue,
		Payload:     raw,
		Status:      StatusPending,
		Attempts:    0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := m.store.HashSet(ctx, jobKey(job.ID), job.toHash()); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	if opts.Delay > 0 {
		due := now.Add(opts.Delay)
		if err := m.store.SortedSetAdd(ctx, delayedKey(queue), job.ID, score(due)); err != nil {
			return nil, fmt.Errorf("failed to schedule delayed job: %w", err)
		}
	} else {
		if err := m.store.ListPush(ctx, readyKey(queue), job.ID); err != nil {
			return nil, fmt.Errorf("failed to push job onto ready list: %w", err)
		}
	}

	m.count(ctx, queue, counterEnqueued)
	m.logger.DebugContext(ctx, "job enqueued",
		"job_id", job.ID,
		"queue", queue,
		"max_attempts", maxAttempts,
		"delay", opts.Delay)

	return job, nil
}

// GetNextJob promotes every due delayed job onto the ready list, then leases
// the oldest ready job by moving it onto the processing list. It returns
// (nil, nil) when no job is ready; that is "no work now", not an error.
func (m *Manager) GetNextJob(ctx context.Context, queue Name) (*Job, error) {
	if !queue.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQueue, queue)
	}

	now := m.now().UTC()
	if err := m.promoteDue(ctx, queue, now); err != nil {
		return nil, err
	}

	id, ok, err := m.store.ListMove(ctx, readyKey(queue), processingKey(queue))
	if err != nil {
		return nil, fmt.Errorf("failed to lease job: %w", err)
	}
	if !ok {
		return nil, nil
	}

	job, err := m.GetJob(ctx, id)
	switch {
	case errors.Is(err, ErrJobNotFound):
		// An id without a record can never be processed; drop the lease.
		m.logger.WarnContext(ctx, "dropping leased id without job record",
			"job_id", id,
			"queue", queue)
		if _, rmErr := m.store.ListRemove(ctx, processingKey(queue), id); rmErr != nil {
			return nil, fmt.Errorf("failed to drop orphaned lease: %w", rmErr)
		}
		return nil, nil
	case errors.Is(err, ErrCorruptRecord):
		// An unreadable record cannot be failed or completed either; park it
		// where operators inspect dead letters.
		m.logger.ErrorContext(ctx, "dead-lettering leased job with corrupt record",
			"job_id", id,
			"queue", queue,
			"error", err)
		if _, rmErr := m.store.ListRemove(ctx, processingKey(queue), id); rmErr != nil {
			return nil, fmt.Errorf("failed to drop corrupt lease: %w", rmErr)
		}
		if pushErr := m.store.ListPush(ctx, failedKey(queue), id); pushErr != nil {
			return nil, fmt.Errorf("failed to dead-letter corrupt job: %w", pushErr)
		}
		m.count(ctx, queue, counterDeadLettered)
		return nil, nil
	case err != nil:
		return nil, err
	}

	job.LeasedAt = &now
	job.UpdatedAt = now
	if err := m.store.HashSet(ctx, jobKey(id), map[string]string{
		FieldLeasedAt:  formatTime(now),
		FieldUpdatedAt: formatTime(now),
	}); err != nil {
		return nil, fmt.Errorf("failed to stamp lease: %w", err)
	}

	return job, nil
}

// promoteDue moves every delayed id whose due time has passed onto the ready
// list. Only the caller whose sorted-set removal succeeds pushes the id, so
// concurrent pollers never promote the same job twice.
func (m *Manager) promoteDue(ctx context.Context, queue Name, now time.Time) error {
	for {
		ids, err := m.store.SortedSetRangeByScore(ctx, delayedKey(queue), score(now), promoteBatch)
		if err != nil {
			return fmt.Errorf("failed to read delayed jobs: %w", err)
		}

		for _, id := range ids {
			removed, err := m.store.SortedSetRemove(ctx, delayedKey(queue), id)
			if err != nil {
				return fmt.Errorf("failed to claim delayed job %s: %w", id, err)
			}
			if !removed {
				continue
			}
			if err := m.store.ListPush(ctx, readyKey(queue), id); err != nil {
				return fmt.Errorf("failed to promote delayed job %s: %w", id, err)
			}
			m.logger.DebugContext(ctx, "promoted delayed job", "job_id", id, "queue", queue)
		}

		if len(ids) < promoteBatch {
			return nil
		}
	}
}

// GetJob loads the record for id.
func (m *Manager) GetJob(ctx context.Context, id string) (*Job, error) {
	h, err := m.store.HashGetAll(ctx, jobKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", id, err)
	}
	if len(h) == 0 {
		return nil, ErrJobNotFound
	}
	return jobFromHash(h)
}

// RetryAt returns when a job waiting in the delayed set becomes ready again.
// ok is false when the job is not scheduled for a retry.
func (m *Manager) RetryAt(ctx context.Context, id string) (at time.Time, ok bool, err error) {
	job, err := m.GetJob(ctx, id)
	if err != nil {
		return time.Time{}, false, err
	}
	sc, ok, err := m.store.SortedSetScore(ctx, delayedKey(job.Queue), id)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read retry time of job %s: %w", id, err)
	}
	if !ok {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(int64(sc)).UTC(), true, nil
}

// UpdateJob merges fields into the record and refreshes updatedAt. Custom
// progress fields may hold any value. Of the reserved fields only status may
// be written, and only as pending or processing, which is how workers mark a
// leased job as processing; the rest are owned by the manager operations.
func (m *Manager) UpdateJob(ctx context.Context, id string, fields map[string]string) error {
	if err := validateUpdate(fields); err != nil {
		return err
	}

	h, err := m.store.HashGetAll(ctx, jobKey(id))
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", id, err)
	}
	if len(h) == 0 {
		return ErrJobNotFound
	}
	return m.update(ctx, id, fields)
}

func validateUpdate(fields map[string]string) error {
	for k, v := range fields {
		switch {
		case k == FieldStatus:
			if s := Status(v); s != StatusPending && s != StatusProcessing {
				return fmt.Errorf("%w: %q", ErrInvalidStatus, v)
			}
		case reservedFields[k]:
			return fmt.Errorf("%w: %s", ErrReservedField, k)
		}
	}
	return nil
}

func (m *Manager) update(ctx context.Context, id string, fields map[string]string) error {
	merged := make(map[string]string, len(fields)+1)
	for k, v := range fields {
		if k == FieldID || k == FieldQueue || k == FieldCreatedAt {
			// Identity fields are immutable.
			continue
		}
		merged[k] = v
	}
	merged[FieldUpdatedAt] = formatTime(m.now())

	if err := m.store.HashSet(ctx, jobKey(id), merged); err != nil {
		return fmt.Errorf("failed to update job %s: %w", id, err)
	}
	return nil
}

// CompleteJob marks the job completed and removes it from the processing
// list. Calling it again for the same id is a no-op, as is completing a job
// that holds no lease on queue.
func (m *Manager) CompleteJob(ctx context.Context, id string, queue Name) error {
	job, err := m.GetJob(ctx, id)
	if err != nil {
		return err
	}

	if job.Status == StatusFailed {
		// A reaper already dead-lettered this job; leave it where operators look.
		m.logger.WarnContext(ctx, "ignoring completion of dead-lettered job",
			"job_id", id,
			"queue", queue)
		return nil
	}

	removed, err := m.store.ListRemove(ctx, processingKey(queue), id)
	if err != nil {
		return fmt.Errorf("failed to remove job from processing list: %w", err)
	}
	// A reaper may have rescheduled the job while it was still running.
	rescheduled, err := m.store.SortedSetRemove(ctx, delayedKey(queue), id)
	if err != nil {
		return fmt.Errorf("failed to remove job from delayed set: %w", err)
	}
	if removed == 0 && !rescheduled {
		if job.Status != StatusCompleted {
			m.logger.WarnContext(ctx, "ignoring completion of job without a lease",
				"job_id", id,
				"queue", queue,
				"status", job.Status)
		}
		return nil
	}

	if job.Status != StatusCompleted {
		now := m.now().UTC()
		if err := m.update(ctx, id, map[string]string{
			FieldStatus:      string(StatusCompleted),
			FieldCompletedAt: formatTime(now),
		}); err != nil {
			return m.restoreLease(ctx, queue, id, err)
		}
	}

	m.count(ctx, queue, counterCompleted)
	m.logger.DebugContext(ctx, "job completed", "job_id", id, "queue", queue)
	return nil
}

// FailJob records a failed attempt. The attempt counter is incremented and the
// error stored; once attempts reach maxAttempts the job is dead-lettered,
// otherwise it is rescheduled after Backoff.Delay(attempts). Failing a job that
// is already completed or dead-lettered is a no-op, and so is failing a job
// that holds no lease on queue: removal from the processing list claims the
// attempt, so a late or duplicate call never counts it twice.
func (m *Manager) FailJob(ctx context.Context, id string, queue Name, errorMessage string) error {
	job, err := m.GetJob(ctx, id)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		m.logger.DebugContext(ctx, "ignoring failure of terminal job",
			"job_id", id,
			"queue", queue,
			"status", job.Status)
		return nil
	}

	removed, err := m.store.ListRemove(ctx, processingKey(queue), id)
	if err != nil {
		return fmt.Errorf("failed to remove job from processing list: %w", err)
	}
	if removed == 0 {
		m.logger.WarnContext(ctx, "ignoring failure of job without a lease",
			"job_id", id,
			"queue", queue,
			"attempts", job.Attempts,
			"error", errorMessage)
		return nil
	}

	attempts := job.Attempts + 1
	now := m.now().UTC()

	if attempts >= job.MaxAttempts {
		if err := m.update(ctx, id, map[string]string{
			FieldStatus:    string(StatusFailed),
			FieldAttempts:  strconv.Itoa(attempts),
			FieldLastError: errorMessage,
		}); err != nil {
			return m.restoreLease(ctx, queue, id, err)
		}
		if err := m.store.ListPush(ctx, failedKey(queue), id); err != nil {
			return m.restoreLease(ctx, queue, id,
				fmt.Errorf("failed to push job onto failed list: %w", err))
		}

		m.count(ctx, queue, counterDeadLettered)
		m.logger.WarnContext(ctx, "job dead-lettered",
			"job_id", id,
			"queue", queue,
			"attempts", attempts,
			"error", errorMessage)
		return nil
	}

	delay := m.config.Backoff.Delay(attempts)
	if err := m.update(ctx, id, map[string]string{
		FieldStatus:    string(StatusPending),
		FieldAttempts:  strconv.Itoa(attempts),
		FieldLastError: errorMessage,
	}); err != nil {
		return m.restoreLease(ctx, queue, id, err)
	}
	if err := m.store.SortedSetAdd(ctx, delayedKey(queue), id, score(now.Add(delay))); err != nil {
		return m.restoreLease(ctx, queue, id,
			fmt.Errorf("failed to schedule retry: %w", err))
	}

	m.count(ctx, queue, counterRetried)
	m.logger.InfoContext(ctx, "job scheduled for retry",
		"job_id", id,
		"queue", queue,
		"attempts", attempts,
		"max_attempts", job.MaxAttempts,
		"delay", delay,
		"error", errorMessage)
	return nil
}

// restoreLease puts id back on the processing list after a transition failed
// part way, so the job keeps a queue position the reaper can find. It returns
// cause.
func (m *Manager) restoreLease(ctx context.Context, queue Name, id string, cause error) error {
	if err := m.store.ListPush(ctx, processingKey(queue), id); err != nil {
		m.logger.ErrorContext(ctx, "failed to restore lease",
			"job_id", id,
			"queue", queue,
			"error", err)
	}
	return cause
}

// Stats summarises queue positions and lifetime counters for one queue.
type Stats struct {
	Ready      int64 `json:"ready"`
	Processing int64 `json:"processing"`
	Delayed    int64 `json:"delayed"`
	Failed     int64 `json:"failed"`
	// Total is Ready+Processing+Delayed+Failed: outstanding, non-completed jobs.
	Total int64 `json:"total"`

	Enqueued     int64 `json:"enqueued"`
	Completed    int64 `json:"completed"`
	Retried      int64 `json:"retried"`
	DeadLettered int64 `json:"deadLettered"`
}

// GetQueueStats reads position sizes and counters for queue. It never blocks
// on or modifies queue state.
func (m *Manager) GetQueueStats(ctx context.Context, queue Name) (*Stats, error) {
	if !queue.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQueue, queue)
	}

	var s Stats
	var err error
	if s.Ready, err = m.store.ListLen(ctx, readyKey(queue)); err != nil {
		return nil, fmt.Errorf("failed to read ready list: %w", err)
	}
	if s.Processing, err = m.store.ListLen(ctx, processingKey(queue)); err != nil {
		return nil, fmt.Errorf("failed to read processing list: %w", err)
	}
	if s.Delayed, err = m.store.SortedSetCard(ctx, delayedKey(queue)); err != nil {
		return nil, fmt.Errorf("failed to read delayed set: %w", err)
	}
	if s.Failed, err = m.store.ListLen(ctx, failedKey(queue)); err != nil {
		return nil, fmt.Errorf("failed to read failed list: %w", err)
	}
	s.Total = s.Ready + s.Processing + s.Delayed + s.Failed

	counters := []struct {
		name string
		dst  *int64
	}{
		{counterEnqueued, &s.Enqueued},
		{counterCompleted, &s.Completed},
		{counterRetried, &s.Retried},
		{counterDeadLettered, &s.DeadLettered},
	}
	for _, c := range counters {
		if *c.dst, err = m.store.Counter(ctx, counterKey(queue, c.name)); err != nil {
			return nil, fmt.Errorf("failed to read %s counter: %w", c.name, err)
		}
	}

	metrics.Measure("queue."+string(queue)+".ready", s.Ready)
	metrics.Measure("queue."+string(queue)+".processing", s.Processing)
	metrics.Measure("queue."+string(queue)+".delayed", s.Delayed)
	metrics.Measure("queue."+string(queue)+".failed", s.Failed)

	return &s, nil
}

// count bumps a lifetime counter in the store and the process metrics.
// Counter failures are logged, never returned: they must not undo a transition
// that already happened.
func (m *Manager) count(ctx context.Context, queue Name, name string) {
	metrics.Increment("queue." + string(queue) + "." + name)
	if _, err := m.store.Increment(ctx, counterKey(queue, name)); err != nil {
		m.logger.WarnContext(ctx, "failed to increment queue counter",
			"queue", queue,
			"counter", name,
			"error", err)
	}
}

// score converts a due time to the delayed-set score (epoch milliseconds).
func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}
