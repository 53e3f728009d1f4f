package api

import (
	"encoding/json"
	"time"

	"github.com/phrazzld/resumeq/internal/domain"
	"github.com/phrazzld/resumeq/internal/queue"
)

// GenerationResponse reports the state of one resume generation.
type GenerationResponse struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	DocxURL     string     `json:"docx_url,omitempty"`
	PDFURL      string     `json:"pdf_url,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Message     string     `json:"message,omitempty"`
	JobID       string     `json:"job_id,omitempty"`
}

func generationToResponse(g *domain.Generation) GenerationResponse {
	return GenerationResponse{
		ID:          g.ID.String(),
		Status:      string(g.Status),
		DocxURL:     g.DocxURL,
		PDFURL:      g.PDFURL,
		CompletedAt: g.CompletedAt,
	}
}

// EnqueueRequest is the body of a manual enqueue. Payload is validated
// against the target queue's payload shape.
type EnqueueRequest struct {
	Payload      json.RawMessage `json:"payload"       validate:"required"`
	DelaySeconds int             `json:"delay_seconds" validate:"gte=0,lte=604800"`
	MaxAttempts  int             `json:"max_attempts"  validate:"gte=0,lte=20"`
}

// Options converts the request into AddJob options.
func (r EnqueueRequest) Options() queue.Options {
	return queue.Options{
		MaxAttempts: r.MaxAttempts,
		Delay:       time.Duration(r.DelaySeconds) * time.Second,
	}
}

// QueueStatsResponse pairs a queue with its stats.
type QueueStatsResponse struct {
	Queue string `json:"queue"`
	*queue.Stats
}

// JobResponse is a job record plus, for a job waiting to be retried, the
// time it becomes ready again.
type JobResponse struct {
	*queue.Job
	RetryAt *time.Time `json:"retryAt,omitempty"`
}

// FailedJobsResponse lists dead-lettered jobs of one queue.
type FailedJobsResponse struct {
	Queue string       `json:"queue"`
	Count int          `json:"count"`
	Jobs  []*queue.Job `json:"jobs"`
}

// HealthResponse reports dependency health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
