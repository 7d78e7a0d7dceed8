package services

import (
	"context"
	"ev-charge-planner/internal/domain"
	"ev-charge-planner/internal/ports"
	"ev-charge-planner/internal/resilience"
	"fmt"
	"time"
)

// Decimal places used to quantize route endpoints in cache keys (about 11 m).
const routeKeyDecimals = 4

// RouteService acquires routes through a cache so near-identical queries
// share one upstream call.
type RouteService struct {
	provider ports.RouteProvider
	cache    *resilience.Cache[ports.RouteData]
	now      func() time.Time
}

func NewRouteService(provider ports.RouteProvider, cache *resilience.Cache[ports.RouteData], now func() time.Time) *RouteService {
	if now == nil {
		now = time.Now
	}
	return &RouteService{provider: provider, cache: cache, now: now}
}

// GetRoute returns the route between two points. departAt defaults to the
// current instant. Only the provider's answer is cached; the departure is
// stamped on every call.
func (s *RouteService) GetRoute(ctx context.Context, from, to domain.GeoPoint, departAt *time.Time) (*domain.Route, error) {
	if !from.Valid() || !to.Valid() {
		return nil, domain.Validation("invalid origin/destination")
	}

	key := from.Key(routeKeyDecimals) + "|" + to.Key(routeKeyDecimals)
	data, err := s.cache.GetOrCompute(ctx, key, func(ctx context.Context) (ports.RouteData, error) {
		return s.provider.Route(ctx, from, to)
	})
	if err != nil {
		return nil, fmt.Errorf("get route: %w", err)
	}

	if len(data.Coords) == 0 {
		return nil, domain.ErrRouteNotFound
	}

	depart := s.now()
	if departAt != nil {
		depart = *departAt
	}

	return &domain.Route{
		DistanceKm:      data.DistanceKm,
		DurationMin:     data.DurationMin,
		EncodedGeometry: data.Geometry,
		Coords:          data.Coords,
		DepartAt:        depart,
	}, nil
}
