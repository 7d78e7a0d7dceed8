package ports

import (
	"context"
	"ev-charge-planner/internal/domain"
)

// Port: a boundary for searching charging points of interest.
type StationProvider interface {
	// Return stations within radiusKm of center, at most maxResults.
	StationsAround(ctx context.Context, center domain.GeoPoint, radiusKm float64, maxResults int) ([]domain.ChargeStation, error)
}
