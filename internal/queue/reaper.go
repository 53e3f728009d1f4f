package queue

import (
	"context"
	"fmt"
	"time"
)

// LeaseExpiredError is stored as lastError on jobs reclaimed by RequeueStale.
const LeaseExpiredError = "lease expired"

// RequeueStale fails every job on the processing list of queue whose lease is
// older than olderThan, so a crashed worker cannot strand a job forever. The
// reclaimed job follows the normal FailJob path: it is retried with backoff or
// dead-lettered. It returns the number of jobs reclaimed.
func (m *Manager) RequeueStale(ctx context.Context, queue Name, olderThan time.Duration) (int, error) {
	if !queue.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownQueue, queue)
	}
	if olderThan <= 0 {
		return 0, nil
	}

	ids, err := m.store.ListRange(ctx, processingKey(queue), 0, -1)
	if err != nil {
		return 0, fmt.Errorf("failed to read processing list: %w", err)
	}

	cutoff := m.now().Add(-olderThan)
	reclaimed := 0
	for _, id := range ids {
		job, err := m.GetJob(ctx, id)
		if err != nil {
			m.logger.WarnContext(ctx, "skipping unreadable leased job",
				"job_id", id,
				"queue", queue,
				"error", err)
			continue
		}

		leased := job.UpdatedAt
		if job.LeasedAt != nil {
			leased = *job.LeasedAt
		}
		if !leased.Before(cutoff) {
			continue
		}

		m.logger.WarnContext(ctx, "reclaiming expired lease",
			"job_id", id,
			"queue", queue,
			"leased_at", leased,
			"attempts", job.Attempts)

		if err := m.FailJob(ctx, id, queue, LeaseExpiredError); err != nil {
			return reclaimed, fmt.Errorf("failed to reclaim job %s: %w", id, err)
		}
		reclaimed++
	}
	return reclaimed, nil
}
