package task

import (
	"context"
	"errors"
	"time"

	"github.com/phrazzld/resumeq/internal/domain"
	"github.com/phrazzld/resumeq/internal/queue"
)

// Typed handles of the queues this package has workers for. Producers
// enqueue through them so payloads match what the handlers decode.
var (
	ResumeGenerationQueue = queue.NewTyped[domain.ResumeGenerationJob](queue.ResumeGeneration)
	FileDeletionQueue     = queue.NewTyped[domain.FileDeletionJob](queue.FileDeletion)
)

// Common errors
var (
	ErrNilQueue   = errors.New("job queue cannot be nil")
	ErrNilHandler = errors.New("handler cannot be nil")
	ErrNilLogger  = errors.New("logger cannot be nil")
	ErrNilStore   = errors.New("store cannot be nil")
)

// Handler processes one leased job. A nil error completes the job; any
// error fails it, which schedules a retry or dead-letters it.
type Handler interface {
	Handle(ctx context.Context, job *queue.Job) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, job *queue.Job) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, job *queue.Job) error {
	return f(ctx, job)
}

// JobQueue is the part of *queue.Manager a Runner drives.
type JobQueue interface {
	GetNextJob(ctx context.Context, q queue.Name) (*queue.Job, error)
	UpdateJob(ctx context.Context, id string, fields map[string]string) error
	CompleteJob(ctx context.Context, id string, q queue.Name) error
	FailJob(ctx context.Context, id string, q queue.Name, errorMessage string) error
	RequeueStale(ctx context.Context, q queue.Name, olderThan time.Duration) (int, error)
}

// Enqueuer adds jobs to a queue.
type Enqueuer interface {
	AddJob(ctx context.Context, q queue.Name, payload any, opts queue.Options) (*queue.Job, error)
}

// SubscriberTracker records completed generations against the user's
// email-list subscription.
type SubscriberTracker interface {
	TrackResumeGenerated(ctx context.Context, email string) error
}

var (
	_ JobQueue = (*queue.Manager)(nil)
	_ Enqueuer = (*queue.Manager)(nil)
)
