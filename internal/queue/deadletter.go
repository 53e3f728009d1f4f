package queue

import (
	"context"
	"fmt"
	"strconv"
)

// ListFailed returns up to limit dead-lettered jobs of queue, most recently
// failed first. A limit of zero or less returns every failed job.
func (m *Manager) ListFailed(ctx context.Context, queue Name, limit int64) ([]*Job, error) {
	if !queue.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQueue, queue)
	}

	stop := int64(-1)
	if limit > 0 {
		stop = limit - 1
	}
	ids, err := m.store.ListRange(ctx, failedKey(queue), 0, stop)
	if err != nil {
		return nil, fmt.Errorf("failed to read failed list: %w", err)
	}

	jobs := make([]*Job, 0, len(ids))
	for _, id := range ids {
		job, err := m.GetJob(ctx, id)
		if err != nil {
			m.logger.WarnContext(ctx, "skipping unreadable dead-lettered job",
				"job_id", id,
				"queue", queue,
				"error", err)
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// RetryFailed moves a dead-lettered job back onto the ready list with a fresh
// attempt budget. The id stays the same; lastError is kept for diagnostics.
func (m *Manager) RetryFailed(ctx context.Context, id string, queue Name) (*Job, error) {
	if !queue.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQueue, queue)
	}

	if _, err := m.GetJob(ctx, id); err != nil {
		return nil, err
	}

	removed, err := m.store.ListRemove(ctx, failedKey(queue), id)
	if err != nil {
		return nil, fmt.Errorf("failed to remove job from failed list: %w", err)
	}
	if removed == 0 {
		return nil, ErrNotDeadLetter
	}

	if err := m.update(ctx, id, map[string]string{
		FieldStatus:   string(StatusPending),
		FieldAttempts: strconv.Itoa(0),
	}); err != nil {
		return nil, err
	}
	if err := m.store.ListPush(ctx, readyKey(queue), id); err != nil {
		return nil, fmt.Errorf("failed to push job onto ready list: %w", err)
	}

	m.logger.InfoContext(ctx, "dead-lettered job requeued", "job_id", id, "queue", queue)
	return m.GetJob(ctx, id)
}
