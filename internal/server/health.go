package server

import (
	"context"
	"net/http"
	"time"
)

// HealthHandler reports whether the database is reachable.
type HealthHandler struct {
	*deps
}

func (h *HealthHandler) Routes() []Route {
	return []Route{{http.MethodGet, "/api/health", h.check}}
}

func (h *HealthHandler) check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.DB.PingContext(ctx); err != nil {
		h.logger.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "ok"})
}
