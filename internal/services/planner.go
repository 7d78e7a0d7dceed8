package services

import (
	"context"
	"ev-charge-planner/internal/domain"
	"ev-charge-planner/internal/platform/obs"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const NoteNoStopNeeded = "no stop needed"

type routeSource interface {
	GetRoute(ctx context.Context, from, to domain.GeoPoint, departAt *time.Time) (*domain.Route, error)
}

type stationSource interface {
	FetchAlongRoute(ctx context.Context, coords []domain.GeoPoint) ([]domain.ChargeStation, error)
}

type PlanRequest struct {
	Origin             domain.GeoPoint
	Destination        domain.GeoPoint
	AutonomyKm         float64
	ConsumptionWhPerKm float64
	DepartAt           *time.Time
	ForceCharge        bool
	TopUpKWh           float64
}

// Planner composes route acquisition, the range check, station aggregation
// and cost optimization into one charging decision.
type Planner struct {
	routes    routeSource
	stations  stationSource
	optimizer *Optimizer
	logger    *zap.Logger
}

func NewPlanner(routes routeSource, stations stationSource, optimizer *Optimizer, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{routes: routes, stations: stations, optimizer: optimizer, logger: logger}
}

// Plan computes the recommendation for one trip. Stations are only fetched
// once the range check says a stop is needed.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) (_ *domain.PlanResult, err error) {
	defer obs.Time(ctx, p.logger, "planner.Plan")(&err)

	if !req.Origin.Valid() || !req.Destination.Valid() {
		return nil, domain.Validation("origin/destination required")
	}
	if req.ConsumptionWhPerKm <= 0 || req.AutonomyKm < 0 || req.TopUpKWh < 0 {
		return nil, domain.Validation("invalid vehicle parameters")
	}

	route, err := p.routes.GetRoute(ctx, req.Origin, req.Destination, req.DepartAt)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}

	energy := AssessEnergy(EnergyInput{
		AutonomyKm:         req.AutonomyKm,
		ConsumptionWhPerKm: req.ConsumptionWhPerKm,
		RouteDistanceKm:    route.DistanceKm,
		ForceCharge:        req.ForceCharge,
		TopUpKWh:           req.TopUpKWh,
	})

	if !energy.StopNeeded {
		return &domain.PlanResult{Route: route, Note: NoteNoStopNeeded}, nil
	}

	stations, err := p.stations.FetchAlongRoute(ctx, route.Coords)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}

	rec, err := p.optimizer.Recommend(stations, route.DepartAt, energy)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}

	p.logger.Info("plan computed",
		zap.String("req_id", obs.RequestID(ctx)),
		zap.Float64("distance_km", route.DistanceKm),
		zap.String("station", rec.Station.ID),
		zap.String("strategy", string(rec.Strategy)),
		zap.String("mode", string(rec.Mode)),
		zap.Float64("cost_eur", rec.CostEUR),
	)

	return &domain.PlanResult{Route: route, Recommendation: rec}, nil
}
