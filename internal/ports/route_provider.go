package ports

import (
	"context"
	"ev-charge-planner/internal/domain"
)

// Route geometry and totals as returned by a routing provider.
type RouteData struct {
	DistanceKm  float64
	DurationMin float64
	Geometry    string
	Coords      []domain.GeoPoint
}

// Contract for retrieving a driving route between two points.
type RouteProvider interface {
	// Return the single best route, without alternatives, with full geometry.
	Route(ctx context.Context, from, to domain.GeoPoint) (RouteData, error)
}
