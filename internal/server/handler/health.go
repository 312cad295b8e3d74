package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	redis  Pinger
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler. redis may be nil when the shared
// cache tier is not configured.
func NewHealthHandler(redis Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{redis: redis, logger: logHandler(logger, "health")}
}

// HealthCheck responds with the process status and the shared cache state.
// A Redis outage degrades the report but never fails it, since snapshots are
// still served from memory.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, redis := "ok", "disabled"
	if h.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.redis.Ping(ctx); err != nil {
			h.logger.WarnContext(r.Context(), "redis ping failed", slog.String("error", err.Error()))
			status, redis = "degraded", "unavailable"
		} else {
			redis = "ok"
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    status,
		"redis":     redis,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
