package ports

import (
	"context"
	"ev-charge-planner/internal/domain"
)

type GeocodeResult struct {
	Location    domain.GeoPoint
	DisplayName string
}

// Contract for resolving free-text addresses to coordinates.
type Geocoder interface {
	// Return the best match for the query, or a NotFound error.
	Geocode(ctx context.Context, query string) (GeocodeResult, error)
}
