package geo

import (
	"ev-charge-planner/internal/domain"
	"math"
)

const (
	EarthRadiusKm = 6371.0
	// Approximate length of one degree of latitude.
	KmPerDegree = 111.0
)

// Haversine returns the great-circle distance between two points in kilometres.
func Haversine(a, b domain.GeoPoint) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180

	x := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(lat1)*math.Cos(lat2)

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(x))
}

// PathLength sums the haversine distance of consecutive points.
func PathLength(coords []domain.GeoPoint) float64 {
	var total float64
	for i := 1; i < len(coords); i++ {
		total += Haversine(coords[i-1], coords[i])
	}
	return total
}
