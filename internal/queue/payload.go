package queue

import (
	"context"
	"encoding/json"
	"fmt"
)

// Adder is the enqueue side of Manager.
type Adder interface {
	AddJob(ctx context.Context, queue Name, payload any, opts Options) (*Job, error)
}

// Typed binds a queue to the payload type its jobs carry. Producers and the
// worker of a queue share one Typed value, so a payload of the wrong shape
// fails to compile instead of failing at decode time.
type Typed[T any] struct {
	name Name
}

// NewTyped returns the typed handle for queue name.
func NewTyped[T any](name Name) Typed[T] {
	return Typed[T]{name: name}
}

// Name returns the queue the handle is bound to.
func (q Typed[T]) Name() Name {
	return q.name
}

// Enqueue adds payload to the bound queue.
func (q Typed[T]) Enqueue(ctx context.Context, a Adder, payload T, opts Options) (*Job, error) {
	return a.AddJob(ctx, q.name, payload, opts)
}

// Decode unmarshals the payload of a job leased from the bound queue. A job
// from any other queue is rejected.
func (q Typed[T]) Decode(job *Job) (T, error) {
	if job != nil && job.Queue != q.name {
		var zero T
		return zero, fmt.Errorf("%w: job %s belongs to queue %q, not %q",
			ErrInvalidPayload, job.ID, job.Queue, q.name)
	}
	return DecodePayload[T](job)
}

// DecodePayload unmarshals the job payload into T. Handlers validate the
// result; the manager never looks inside a payload.
func DecodePayload[T any](job *Job) (T, error) {
	var v T
	if job == nil || len(job.Payload) == 0 {
		return v, fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}
	if err := json.Unmarshal(job.Payload, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return v, nil
}
