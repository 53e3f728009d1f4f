package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/resumeq/internal/api/shared"
	"github.com/phrazzld/resumeq/internal/domain"
	"github.com/phrazzld/resumeq/internal/platform/logger"
	"github.com/phrazzld/resumeq/internal/queue"
	"github.com/phrazzld/resumeq/internal/redact"
	"github.com/phrazzld/resumeq/internal/store"
	"github.com/phrazzld/resumeq/internal/task"
)

// GenerationHandler serves the owner-facing generation endpoints.
type GenerationHandler struct {
	generations store.GenerationStore
	jobs        task.Enqueuer
	logger      *slog.Logger
}

// NewGenerationHandler creates a new GenerationHandler
func NewGenerationHandler(
	generations store.GenerationStore,
	jobs task.Enqueuer,
	logger *slog.Logger,
) *GenerationHandler {
	return &GenerationHandler{
		generations: generations,
		jobs:        jobs,
		logger:      logger.With("component", "generation_handler"),
	}
}

// requeueableStatuses are the generation states from which Generate may
// queue a new job. A failed generation has already been dead-lettered.
var requeueableStatuses = []domain.GenerationStatus{
	domain.GenerationStatusPending,
	domain.GenerationStatusFailed,
}

// Generate handles POST /api/generations/{id}/generate.
//
// A completed or processing generation is returned as is. Otherwise the
// generation is claimed by moving it to processing with a conditional update,
// and only the request that wins the claim queues a resume-generation job.
func (h *GenerationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := handleUserIDAndPathUUID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	g, err := h.generations.GetForUser(ctx, id, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load generation")
		return
	}

	if g.Status == domain.GenerationStatusCompleted || g.Status == domain.GenerationStatusProcessing {
		respondCurrentGeneration(w, r, g)
		return
	}

	claimed, err := h.generations.TransitionStatus(ctx, g.ID, requeueableStatuses,
		domain.GenerationStatusProcessing)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to queue generation")
		return
	}
	if !claimed {
		// Another request or a worker moved the generation first.
		current, err := h.generations.GetForUser(ctx, id, userID)
		if err != nil {
			HandleAPIError(w, r, err, "Failed to load generation")
			return
		}
		respondCurrentGeneration(w, r, current)
		return
	}

	job, err := task.ResumeGenerationQueue.Enqueue(ctx, h.jobs, domain.ResumeGenerationJob{
		GenerationID: g.ID,
		UserID:       userID,
		AnalysisID:   g.AnalysisID,
	}, queue.Options{})
	if err != nil {
		// Release the claim so the owner can try again.
		if _, revertErr := h.generations.TransitionStatus(ctx, g.ID,
			[]domain.GenerationStatus{domain.GenerationStatusProcessing}, g.Status); revertErr != nil {
			log.Error("failed to release generation claim",
				"generation_id", g.ID,
				"error", redact.Error(revertErr))
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to queue generation", err)
		return
	}

	log.Info("resume generation queued",
		"generation_id", g.ID,
		"user_id", userID,
		"job_id", job.ID)

	resp := generationToResponse(g)
	resp.Status = string(domain.GenerationStatusProcessing)
	resp.Message = "Resume generation has been queued"
	resp.JobID = job.ID
	shared.RespondWithJSON(w, r, http.StatusAccepted, resp)
}

func respondCurrentGeneration(w http.ResponseWriter, r *http.Request, g *domain.Generation) {
	resp := generationToResponse(g)
	if g.Status == domain.GenerationStatusProcessing {
		resp.Message = "Resume generation is in progress"
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// Get handles GET /api/generations/{id}.
func (h *GenerationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := handleUserIDAndPathUUID(w, r)
	if !ok {
		return
	}

	g, err := h.generations.GetForUser(r.Context(), id, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load generation")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, generationToResponse(g))
}
