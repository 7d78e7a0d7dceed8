package handlers

import (
	"net/http"

	"go.uber.org/zap"
)

type HealthHandler struct {
	Logger *zap.Logger
}

// Health provides a minimal liveness check endpoint.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, h.Logger, http.StatusOK, map[string]string{"status": "ok"})
}

// Banner answers the root path so a browser hitting the port sees the service is up.
func (h *HealthHandler) Banner(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, h.Logger, http.StatusOK, map[string]string{
		"service": "ev-charge-planner",
		"status":  "ok",
	})
}
