package handlers

import (
	"context"
	"ev-charge-planner/internal/api/dto"
	"ev-charge-planner/internal/ports"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type Geocoder interface {
	Geocode(ctx context.Context, query string) (ports.GeocodeResult, error)
}

type GeocodeHandler struct {
	Geocoder Geocoder
	Logger   *zap.Logger
}

func (h *GeocodeHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, r, h.Logger, http.StatusBadRequest, "q required")
		return
	}

	res, err := h.Geocoder.Geocode(r.Context(), q)
	if err != nil {
		writeDomainError(w, r, h.Logger, err)
		return
	}

	writeJSON(w, r, h.Logger, http.StatusOK, dto.GeocodeResponse{
		Lat:         res.Location.Lat,
		Lng:         res.Location.Lng,
		DisplayName: res.DisplayName,
	})
}
