package handlers

import (
	"encoding/json"
	"ev-charge-planner/internal/domain"
	"ev-charge-planner/internal/platform/obs"
	"net/http"

	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, r *http.Request, logger *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encode failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, status int, msg string) {
	writeJSON(w, r, logger, status, map[string]string{"error": msg})
}

// statusFor maps an error kind to the response status.
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound, domain.KindNoStations:
		return http.StatusNotFound
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError renders err as {"error": msg}. Only the classified
// message reaches the caller; the full chain is logged.
func writeDomainError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)

	msg := domain.MessageOf(err)
	if status == http.StatusInternalServerError {
		msg = "server error"
	}

	fields := []zap.Field{
		zap.String("req_id", obs.RequestID(r.Context())),
		zap.String("kind", kind.String()),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= 500 {
		logger.Error("request failed", fields...)
	} else {
		logger.Info("request rejected", fields...)
	}

	writeError(w, r, logger, status, msg)
}
