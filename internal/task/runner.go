package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/resumeq/internal/platform/metrics"
	"github.com/phrazzld/resumeq/internal/queue"
)

// RunnerConfig holds configuration for a queue runner
type RunnerConfig struct {
	Queue queue.Name

	// PollInterval is how long the loop sleeps when the queue is empty.
	PollInterval time.Duration

	// ErrorBackoff is how long the loop sleeps after a queue operation fails.
	ErrorBackoff time.Duration

	// LeaseTimeout enables the stale-lease reaper when non-zero. Jobs leased
	// longer than this are failed with "lease expired".
	LeaseTimeout time.Duration

	// ReapInterval defines how often to check for stale leases.
	// If zero, defaults to LeaseTimeout.
	ReapInterval time.Duration
}

// DefaultRunnerConfig returns the poll and backoff intervals used for q.
func DefaultRunnerConfig(q queue.Name) RunnerConfig {
	switch q {
	case queue.FileDeletion:
		return RunnerConfig{Queue: q, PollInterval: 30 * time.Second, ErrorBackoff: time.Minute}
	default:
		return RunnerConfig{Queue: q, PollInterval: 5 * time.Second, ErrorBackoff: 10 * time.Second}
	}
}

// Runner is a single sequential poll loop over one queue.
type Runner struct {
	jobs    JobQueue
	handler Handler
	config  RunnerConfig
	logger  *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunner creates a Runner for config.Queue.
func NewRunner(jobs JobQueue, handler Handler, config RunnerConfig, logger *slog.Logger) (*Runner, error) {
	if jobs == nil {
		return nil, ErrNilQueue
	}
	if handler == nil {
		return nil, ErrNilHandler
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if !config.Queue.Valid() {
		return nil, fmt.Errorf("%w: %q", queue.ErrUnknownQueue, config.Queue)
	}

	defaults := DefaultRunnerConfig(config.Queue)
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.ErrorBackoff <= 0 {
		config.ErrorBackoff = defaults.ErrorBackoff
	}
	if config.ReapInterval <= 0 {
		config.ReapInterval = config.LeaseTimeout
	}

	return &Runner{
		jobs:    jobs,
		handler: handler,
		config:  config,
		logger:  logger.With("component", "runner", "queue", string(config.Queue)),
	}, nil
}

// Start begins polling in the background. It stops when ctx is cancelled or
// Stop is called. Calling Start on a running Runner is a no-op.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go r.loop(ctx)

	if r.config.LeaseTimeout > 0 {
		r.wg.Add(1)
		go r.reaper(ctx)
	}

	r.logger.Info("runner started",
		"poll_interval", r.config.PollInterval,
		"error_backoff", r.config.ErrorBackoff,
		"lease_timeout", r.config.LeaseTimeout)
}

// Stop cancels polling and waits for the in-flight job, if any, to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
	r.logger.Info("runner stopped")
}

func (r *Runner) loop(ctx context.Context) {
	defer r.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		processed, err := r.RunOnce(ctx)

		var wait time.Duration
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			r.logger.Error("worker loop error", "error", err)
			metrics.Increment("worker." + string(r.config.Queue) + ".loop_errors")
			wait = r.config.ErrorBackoff
		case !processed:
			wait = r.config.PollInterval
		default:
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// RunOnce leases and processes at most one job. It reports whether a job was
// leased. Handler failures are recorded with FailJob and are not returned;
// only queue errors are.
//
// The handler and the completion call run on a context detached from ctx's
// cancellation so that a leased job is finished during shutdown.
func (r *Runner) RunOnce(ctx context.Context) (bool, error) {
	job, err := r.jobs.GetNextJob(ctx, r.config.Queue)
	if err != nil {
		return false, fmt.Errorf("failed to get next job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	jobCtx := context.WithoutCancel(ctx)
	log := r.logger.With("job_id", job.ID, "attempts", job.Attempts)

	if err := r.jobs.UpdateJob(jobCtx, job.ID, map[string]string{
		queue.FieldStatus: string(queue.StatusProcessing),
	}); err != nil {
		log.Warn("failed to mark job processing", "error", err)
	}

	log.Info("processing job")
	start := time.Now()
	handleErr := r.safeHandle(jobCtx, job)
	metrics.Time("worker."+string(r.config.Queue)+".duration", time.Since(start))

	if handleErr != nil {
		log.Error("job failed", "error", handleErr)
		metrics.Increment("worker." + string(r.config.Queue) + ".failed")
		if err := r.jobs.FailJob(jobCtx, job.ID, r.config.Queue, handleErr.Error()); err != nil {
			return true, fmt.Errorf("failed to record failure of job %s: %w", job.ID, err)
		}
		return true, nil
	}

	if err := r.jobs.CompleteJob(jobCtx, job.ID, r.config.Queue); err != nil {
		return true, fmt.Errorf("failed to complete job %s: %w", job.ID, err)
	}
	metrics.Increment("worker." + string(r.config.Queue) + ".succeeded")
	log.Info("job completed", "duration", time.Since(start))
	return true, nil
}

// safeHandle converts a handler panic into an error so the job is failed
// instead of leaking its lease.
func (r *Runner) safeHandle(ctx context.Context, job *queue.Job) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panic: %v", p)
		}
	}()
	return r.handler.Handle(ctx, job)
}

// reaper periodically fails jobs whose lease is older than LeaseTimeout.
func (r *Runner) reaper(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.jobs.RequeueStale(ctx, r.config.Queue, r.config.LeaseTimeout)
			if err != nil {
				r.logger.Error("failed to reap stale leases", "error", err)
				continue
			}
			if n > 0 {
				r.logger.Warn("failed stale leases", "count", n)
			}
		}
	}
}
