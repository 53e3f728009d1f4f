package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
	"github.com/phrazzld/resumeq/internal/api/middleware"
	"github.com/phrazzld/resumeq/internal/service/auth"
	"github.com/phrazzld/resumeq/internal/store"
)

// RouterConfig holds the dependencies of the HTTP API.
type RouterConfig struct {
	Logger      *slog.Logger
	JWTService  auth.JWTService
	Generations store.GenerationStore
	Queue       QueueAdmin

	// HealthChecks run on every GET /health, keyed by dependency name.
	HealthChecks map[string]HealthCheck

	// AccessLog receives one combined-format line per request when set.
	AccessLog io.Writer
}

// NewRouter builds the API routes:
//
//	GET  /health
//	GET  /metrics
//	POST /api/generations/{id}/generate
//	GET  /api/generations/{id}
//	GET  /admin/queues
//	GET  /admin/queues/{queue}
//	GET  /admin/queues/{queue}/failed
//	POST /admin/queues/{queue}/failed/{jobID}/retry
//	POST /admin/queues/{queue}/jobs
//	GET  /admin/jobs/{jobID}
//
// /api routes need a bearer token and /admin routes need the service role.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(cfg.Logger.Handler(), slog.LevelError)),
		handlers.PrintRecoveryStack(false),
	))
	r.Use(middleware.NewTraceMiddleware(cfg.Logger))

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTService)
	generationHandler := NewGenerationHandler(cfg.Generations, cfg.Queue, cfg.Logger)
	adminHandler := NewAdminHandler(cfg.Queue, cfg.Logger)

	r.Get("/health", healthHandler(cfg.HealthChecks))
	r.Get("/metrics", metricsHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Post("/generations/{id}/generate", generationHandler.Generate)
		r.Get("/generations/{id}", generationHandler.Get)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Use(authMiddleware.RequireService)

		r.Get("/queues", adminHandler.ListQueues)
		r.Get("/queues/{queue}", adminHandler.QueueStats)
		r.Get("/queues/{queue}/failed", adminHandler.ListFailed)
		r.Post("/queues/{queue}/failed/{jobID}/retry", adminHandler.RetryFailed)
		r.Post("/queues/{queue}/jobs", adminHandler.Enqueue)
		r.Get("/jobs/{jobID}", adminHandler.GetJob)
	})

	if cfg.AccessLog != nil {
		return handlers.CombinedLoggingHandler(cfg.AccessLog, r)
	}
	return r
}
