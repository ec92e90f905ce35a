package handler

import (
	"context"
	"net/http"
	"time"
)

// PingFunc checks one dependency.
type PingFunc func(ctx context.Context) error

// HealthHandler handles health check requests.
type HealthHandler struct {
	checks map[string]PingFunc
}

// NewHealthHandler creates a new HealthHandler. checks maps dependency names
// (postgres, redis) to their probes. Unconfigured dependencies are omitted.
func NewHealthHandler(checks map[string]PingFunc) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 if the service is ready to accept traffic.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := map[string]string{"status": "ready"}
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, name+" unhealthy", err.Error())
			return
		}
		status[name] = "ok"
	}

	writeJSON(w, http.StatusOK, status)
}
