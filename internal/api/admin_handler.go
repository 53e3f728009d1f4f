package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/resumeq/internal/api/shared"
	"github.com/phrazzld/resumeq/internal/queue"
	"github.com/phrazzld/resumeq/internal/task"
)

// Failed-list paging.
const (
	defaultFailedLimit = 50
	maxFailedLimit     = 1000
)

// QueueAdmin is the operator surface of the queue manager.
type QueueAdmin interface {
	task.Enqueuer
	GetJob(ctx context.Context, id string) (*queue.Job, error)
	GetQueueStats(ctx context.Context, q queue.Name) (*queue.Stats, error)
	ListFailed(ctx context.Context, q queue.Name, limit int64) ([]*queue.Job, error)
	RetryFailed(ctx context.Context, id string, q queue.Name) (*queue.Job, error)
	RetryAt(ctx context.Context, id string) (time.Time, bool, error)
}

var _ QueueAdmin = (*queue.Manager)(nil)

// AdminHandler serves the operator endpoints.
type AdminHandler struct {
	queue  QueueAdmin
	logger *slog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(q QueueAdmin, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		queue:  q,
		logger: logger.With("component", "admin_handler"),
	}
}

// ListQueues handles GET /admin/queues.
func (h *AdminHandler) ListQueues(w http.ResponseWriter, r *http.Request) {
	out := make([]QueueStatsResponse, 0, len(queue.Names))
	for _, name := range queue.Names {
		stats, err := h.queue.GetQueueStats(r.Context(), name)
		if err != nil {
			HandleAPIError(w, r, err, "Failed to read queue stats")
			return
		}
		out = append(out, QueueStatsResponse{Queue: string(name), Stats: stats})
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// QueueStats handles GET /admin/queues/{queue}.
func (h *AdminHandler) QueueStats(w http.ResponseWriter, r *http.Request) {
	name, err := getPathQueue(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	stats, err := h.queue.GetQueueStats(r.Context(), name)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to read queue stats")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, QueueStatsResponse{Queue: string(name), Stats: stats})
}

// ListFailed handles GET /admin/queues/{queue}/failed.
func (h *AdminHandler) ListFailed(w http.ResponseWriter, r *http.Request) {
	name, err := getPathQueue(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	limit, err := getLimit(r, defaultFailedLimit, maxFailedLimit)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	jobs, err := h.queue.ListFailed(r.Context(), name, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list failed jobs")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, FailedJobsResponse{
		Queue: string(name),
		Count: len(jobs),
		Jobs:  jobs,
	})
}

// RetryFailed handles POST /admin/queues/{queue}/failed/{jobID}/retry.
func (h *AdminHandler) RetryFailed(w http.ResponseWriter, r *http.Request) {
	name, err := getPathQueue(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	id := chi.URLParam(r, "jobID")

	job, err := h.queue.RetryFailed(r.Context(), id, name)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retry job")
		return
	}
	h.logger.InfoContext(r.Context(), "dead-lettered job retried by operator",
		"job_id", id,
		"queue", name)
	shared.RespondWithJSON(w, r, http.StatusOK, job)
}

// Enqueue handles POST /admin/queues/{queue}/jobs.
func (h *AdminHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	name, err := getPathQueue(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req EnqueueRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if err := task.ValidatePayload(name, req.Payload); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	job, err := h.queue.AddJob(r.Context(), name, req.Payload, req.Options())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to enqueue job")
		return
	}
	h.logger.InfoContext(r.Context(), "job enqueued by operator",
		"job_id", job.ID,
		"queue", name,
		"delay_seconds", req.DelaySeconds)
	shared.RespondWithJSON(w, r, http.StatusCreated, job)
}

// GetJob handles GET /admin/jobs/{jobID}.
func (h *AdminHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	job, err := h.queue.GetJob(ctx, chi.URLParam(r, "jobID"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load job")
		return
	}

	resp := JobResponse{Job: job}
	at, scheduled, err := h.queue.RetryAt(ctx, job.ID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load job")
		return
	}
	if scheduled {
		resp.RetryAt = &at
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
