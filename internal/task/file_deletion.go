package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/resumeq/internal/platform/metrics"
	"github.com/phrazzld/resumeq/internal/platform/storage"
	"github.com/phrazzld/resumeq/internal/queue"
)

// FileDeletionHandler deletes a batch of stored files owned by one user.
type FileDeletionHandler struct {
	storage storage.ObjectStore
	logger  *slog.Logger
}

var _ Handler = (*FileDeletionHandler)(nil)

// NewFileDeletionHandler creates a FileDeletionHandler.
func NewFileDeletionHandler(objects storage.ObjectStore, logger *slog.Logger) (*FileDeletionHandler, error) {
	if objects == nil {
		return nil, errors.New("object storage cannot be nil")
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	return &FileDeletionHandler{
		storage: objects,
		logger:  logger.With("component", "file_deletion"),
	}, nil
}

// Handle deletes every path in the payload in one request. An empty path
// list succeeds without calling storage.
func (h *FileDeletionHandler) Handle(ctx context.Context, job *queue.Job) error {
	payload, err := FileDeletionQueue.Decode(job)
	if err != nil {
		return err
	}
	if err := payload.Validate(); err != nil {
		return fmt.Errorf("%w: %v", queue.ErrInvalidPayload, err)
	}

	log := h.logger.With("job_id", job.ID, "user_id", payload.UserID, "reason", payload.Reason)
	if len(payload.FilePaths) == 0 {
		log.DebugContext(ctx, "no files to delete")
		return nil
	}

	if err := h.storage.Delete(ctx, payload.FilePaths); err != nil {
		return fmt.Errorf("failed to delete files: %w", err)
	}

	metrics.Increment("retention.deletion_jobs")
	metrics.Add("retention.files_deleted", int64(len(payload.FilePaths)))
	log.InfoContext(ctx, "deleted files", "count", len(payload.FilePaths))
	return nil
}
