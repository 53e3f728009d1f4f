package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/phrazzld/resumeq/internal/api/shared"
	"github.com/phrazzld/resumeq/internal/platform/logger"
	"github.com/phrazzld/resumeq/internal/platform/metrics"
	"github.com/phrazzld/resumeq/internal/redact"
)

// healthTimeout bounds each dependency check.
const healthTimeout = 2 * time.Second

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

// healthHandler reports 200 when every check passes and 503 otherwise.
func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "ok"}
		status := http.StatusOK
		if len(names) > 0 {
			resp.Checks = make(map[string]string, len(names))
		}

		for _, name := range names {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			err := checks[name](ctx)
			cancel()
			if err != nil {
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				logger.FromContext(r.Context()).Warn("health check failed",
					"check", name,
					"error", redact.Error(err))
				continue
			}
			resp.Checks[name] = "ok"
		}
		shared.RespondWithJSON(w, r, status, resp)
	}
}

// metricsHandler serves the process metric registry as JSON.
func metricsHandler(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, metrics.Snapshot())
}
