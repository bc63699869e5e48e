package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// HealthCheckFunc probes one backing dependency.
type HealthCheckFunc func(ctx context.Context) error

// HealthHandler serves the health-check endpoint, reporting per-dependency
// status for whatever checks were registered at wiring time.
type HealthHandler struct {
	checks map[string]HealthCheckFunc
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler with the provided dependency
// checks. checks may be nil or empty.
func NewHealthHandler(checks map[string]HealthCheckFunc, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		logger: logHandler(logger, "health"),
	}
}

// HealthCheck responds with overall status plus one entry per dependency.
// Any failing dependency degrades the response to 503.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	overall := "ok"
	deps := make(map[string]string, len(h.checks))

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.WarnContext(ctx, "dependency unhealthy",
				slog.String("dependency", name),
				slog.String("error", err.Error()),
			)
			deps[name] = err.Error()
			overall = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	writeJSON(w, status, map[string]any{
		"status":       overall,
		"dependencies": deps,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	})
}
