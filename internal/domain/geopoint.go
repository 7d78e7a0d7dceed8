package domain

import "fmt"

// Immutable geographic position in decimal degrees (WGS 84).
type GeoPoint struct {
	Lat float64
	Lng float64
}

// Report whether the point lies inside the valid latitude/longitude ranges.
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Format the point as "lat,lng" rounded to the given number of decimals.
// Used to build cache keys that tolerate near-identical queries.
func (p GeoPoint) Key(decimals int) string {
	return fmt.Sprintf("%.*f,%.*f", decimals, p.Lat, decimals, p.Lng)
}
