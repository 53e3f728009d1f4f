package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/resumeq/internal/domain"
	"github.com/phrazzld/resumeq/internal/generation"
	"github.com/phrazzld/resumeq/internal/platform/metrics"
	"github.com/phrazzld/resumeq/internal/platform/storage"
	"github.com/phrazzld/resumeq/internal/queue"
	"github.com/phrazzld/resumeq/internal/render"
	"github.com/phrazzld/resumeq/internal/store"
)

// ResumeGenerationDeps are the collaborators of ResumeGenerationHandler.
// Tracker is optional.
type ResumeGenerationDeps struct {
	Generations store.GenerationStore
	Analyses    store.AnalysisStore
	Profiles    store.ProfileStore
	Rewriter    generation.Rewriter
	Renderer    render.Renderer
	Storage     storage.ObjectStore
	Tracker     SubscriberTracker
}

// ResumeGenerationHandler turns an analysis into a rewritten resume, renders
// and uploads it, and records the result on the generation.
type ResumeGenerationHandler struct {
	deps   ResumeGenerationDeps
	logger *slog.Logger
	now    func() time.Time
}

var _ Handler = (*ResumeGenerationHandler)(nil)

// NewResumeGenerationHandler validates deps and creates the handler.
func NewResumeGenerationHandler(deps ResumeGenerationDeps, logger *slog.Logger) (*ResumeGenerationHandler, error) {
	if deps.Generations == nil || deps.Analyses == nil || deps.Profiles == nil {
		return nil, ErrNilStore
	}
	if deps.Rewriter == nil {
		return nil, errors.New("rewriter cannot be nil")
	}
	if deps.Renderer == nil {
		return nil, errors.New("renderer cannot be nil")
	}
	if deps.Storage == nil {
		return nil, errors.New("object storage cannot be nil")
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	return &ResumeGenerationHandler{
		deps:   deps,
		logger: logger.With("component", "resume_generation"),
		now:    time.Now,
	}, nil
}

// Handle processes one resume-generation job. Any failure after the payload
// is decoded is returned so the job is retried or dead-lettered; on the
// attempt that dead-letters the job the generation is also marked failed.
func (h *ResumeGenerationHandler) Handle(ctx context.Context, job *queue.Job) error {
	payload, err := ResumeGenerationQueue.Decode(job)
	if err != nil {
		return err
	}
	if err := payload.Validate(); err != nil {
		return fmt.Errorf("%w: %v", queue.ErrInvalidPayload, err)
	}

	log := h.logger.With(
		"job_id", job.ID,
		"generation_id", payload.GenerationID.String(),
		"user_id", payload.UserID.String(),
		"attempts", job.Attempts,
	)

	if err := h.generate(ctx, payload, log); err != nil {
		if !finalAttempt(job) {
			// The job will be retried; the generation stays processing so the
			// owner cannot queue a second job for it meanwhile.
			log.WarnContext(ctx, "generation attempt failed, retry scheduled", "error", err)
			metrics.Increment("generation.retried")
			return err
		}
		if markErr := h.deps.Generations.MarkFailed(ctx, payload.GenerationID, h.now().UTC()); markErr != nil {
			log.ErrorContext(ctx, "failed to mark generation failed", "error", markErr)
		}
		metrics.Increment("generation.failed")
		return err
	}

	metrics.Increment("generation.completed")
	return nil
}

func (h *ResumeGenerationHandler) generate(
	ctx context.Context,
	payload domain.ResumeGenerationJob,
	log *slog.Logger,
) error {
	gen, err := h.deps.Generations.GetByID(ctx, payload.GenerationID)
	if err != nil {
		return fmt.Errorf("failed to load generation: %w", err)
	}
	if gen.Status == domain.GenerationStatusCompleted {
		// A previous attempt finished but its job was not completed.
		log.InfoContext(ctx, "generation already completed, skipping")
		return nil
	}

	if err := h.deps.Generations.UpdateStatus(ctx, payload.GenerationID, domain.GenerationStatusProcessing); err != nil {
		return fmt.Errorf("failed to mark generation processing: %w", err)
	}

	analysis, err := h.deps.Analyses.GetByID(ctx, payload.AnalysisID)
	if err != nil {
		return fmt.Errorf("failed to load analysis: %w", err)
	}

	var email string
	if profile, err := h.deps.Profiles.GetByID(ctx, payload.UserID); err != nil {
		log.WarnContext(ctx, "failed to load profile, skipping email tracking", "error", err)
	} else {
		email = profile.Email
	}

	log.InfoContext(ctx, "rewriting resume")
	result, err := h.deps.Rewriter.Rewrite(ctx, generation.Request{
		OriginalText:   analysis.OriginalText,
		JobDescription: analysis.JobDescription,
		Analysis:       analysis.Result,
	})
	if err != nil {
		return fmt.Errorf("failed to rewrite resume: %w", err)
	}

	docx, err := h.deps.Renderer.DOCX(result.Text)
	if err != nil {
		return fmt.Errorf("failed to render docx: %w", err)
	}
	pdf, err := h.deps.Renderer.PDF(result.Text)
	if err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}

	base := fmt.Sprintf("%s/%s_%d", payload.UserID, payload.GenerationID, h.now().UnixMilli())
	docxPath, pdfPath := base+".docx", base+".pdf"

	if err := h.deps.Storage.Upload(ctx, docxPath, docx, storage.ContentTypeDOCX); err != nil {
		return fmt.Errorf("failed to upload docx: %w", err)
	}
	if err := h.deps.Storage.Upload(ctx, pdfPath, pdf, storage.ContentTypePDF); err != nil {
		return fmt.Errorf("failed to upload pdf: %w", err)
	}

	err = h.deps.Generations.Complete(ctx, payload.GenerationID, domain.GenerationResult{
		RewrittenText:   result.Text,
		DocxURL:         h.deps.Storage.PublicURL(docxPath),
		PDFURL:          h.deps.Storage.PublicURL(pdfPath),
		GenerationModel: result.Model,
		CompletedAt:     h.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to update generation: %w", err)
	}

	log.InfoContext(ctx, "resume generated", "model", result.Model, "docx_path", docxPath)

	if email != "" && h.deps.Tracker != nil {
		if err := h.deps.Tracker.TrackResumeGenerated(ctx, email); err != nil {
			log.WarnContext(ctx, "failed to track generation", "error", err)
		}
	}
	return nil
}

// finalAttempt reports whether a failure of this run dead-letters job.
func finalAttempt(job *queue.Job) bool {
	return job.Attempts+1 >= job.MaxAttempts
}
