package handlers

import (
	"context"
	"encoding/json"
	"ev-charge-planner/internal/api/dto"
	"ev-charge-planner/internal/config"
	"ev-charge-planner/internal/domain"
	"ev-charge-planner/internal/services"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Time layout of startISO/endISO: UTC with milliseconds.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

const maxPlanBody = 1 << 20

type Planner interface {
	Plan(ctx context.Context, req services.PlanRequest) (*domain.PlanResult, error)
}

type PlanHandler struct {
	Planner  Planner
	Defaults config.VehicleConfig
	// Timeout caps planning so the error body is written before the server
	// write deadline. Zero means no cap.
	Timeout time.Duration
	Logger  *zap.Logger
}

// Plan validates the trip, runs the planner and renders its decision.
func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	var req dto.PlanRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPlanBody))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, h.Logger, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, h.Logger, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	svcReq, msg := h.toServiceRequest(req)
	if msg != "" {
		writeError(w, r, h.Logger, http.StatusBadRequest, msg)
		return
	}

	ctx := r.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	res, err := h.Planner.Plan(ctx, svcReq)
	if err != nil {
		writeDomainError(w, r, h.Logger, err)
		return
	}

	writeJSON(w, r, h.Logger, http.StatusOK, toPlanResponse(res))
}

// toServiceRequest applies defaults and returns a non-empty message when the
// request is invalid.
func (h *PlanHandler) toServiceRequest(req dto.PlanRequest) (services.PlanRequest, string) {
	origin, ok := toGeoPoint(req.Origin)
	if !ok {
		return services.PlanRequest{}, "origin/destination required"
	}
	destination, ok := toGeoPoint(req.Destination)
	if !ok {
		return services.PlanRequest{}, "origin/destination required"
	}
	if !origin.Valid() || !destination.Valid() {
		return services.PlanRequest{}, "origin/destination out of range"
	}

	out := services.PlanRequest{
		Origin:             origin,
		Destination:        destination,
		AutonomyKm:         valueOr(req.AutonomyKm, h.Defaults.AutonomyKm),
		ConsumptionWhPerKm: valueOr(req.CWhPerKm, h.Defaults.ConsumptionWhPerKm),
		ForceCharge:        req.ForceCharge,
		TopUpKWh:           valueOr(req.TopupKWh, h.Defaults.TopUpKWh),
	}

	if out.AutonomyKm < 0 {
		return services.PlanRequest{}, "autonomyKm must be >= 0"
	}
	if out.ConsumptionWhPerKm <= 0 {
		return services.PlanRequest{}, "cWhPerKm must be > 0"
	}
	if out.TopUpKWh < 0 {
		return services.PlanRequest{}, "topupKWh must be >= 0"
	}

	if req.DepartAtISO != nil && strings.TrimSpace(*req.DepartAtISO) != "" {
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.DepartAtISO))
		if err != nil {
			return services.PlanRequest{}, "departAtISO must be RFC3339"
		}
		out.DepartAt = &t
	}

	return out, ""
}

func toGeoPoint(p *dto.Point) (domain.GeoPoint, bool) {
	if p == nil || p.Lat == nil || p.Lng == nil {
		return domain.GeoPoint{}, false
	}
	return domain.GeoPoint{Lat: *p.Lat, Lng: *p.Lng}, true
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func toPlanResponse(res *domain.PlanResult) dto.PlanResponse {
	out := dto.PlanResponse{Note: res.Note}
	if res.Route != nil {
		out.Route = dto.RouteSummary{
			DistanceKm:  res.Route.DistanceKm,
			DurationMin: res.Route.DurationMin,
			Polyline:    res.Route.EncodedGeometry,
		}
	}

	if rec := res.Recommendation; rec != nil {
		out.Recommendation = &dto.RecommendationResponse{
			Station: dto.StationResponse{
				ID:      rec.Station.ID,
				Name:    rec.Station.Name,
				Lat:     rec.Station.Location.Lat,
				Lng:     rec.Station.Location.Lng,
				PowerKw: rec.Station.MaxPowerKw,
				Type:    string(rec.Station.Class),
			},
			StartISO:         rec.StartAt.UTC().Format(isoMillis),
			EndISO:           rec.EndAt.UTC().Format(isoMillis),
			KWhToCharge:      rec.EnergyKWh,
			PowerKw:          rec.PowerKw,
			EstimatedCostEUR: rec.CostEUR,
			Reason:           string(rec.Strategy),
			Mode:             string(rec.Mode),
		}
	}

	return out
}
