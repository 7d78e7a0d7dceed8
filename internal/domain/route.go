package domain

import "time"

// Represents the road route for a single plan request.
// Coords keep the routing provider's polyline order, which is significant
// for sampling. A Route is created once per request and never mutated.
type Route struct {
	DistanceKm      float64
	DurationMin     float64
	EncodedGeometry string
	Coords          []GeoPoint
	DepartAt        time.Time
}
