package geo

import (
	"ev-charge-planner/internal/domain"
	"math"
)

// Sample reduces a dense polyline to query points spaced at least stepKm apart.
//
// Distance is accumulated along the path and a point is emitted each time the
// accumulator reaches stepKm, after which it resets. The start point is never
// emitted. Routes too short to emit anything yield their midpoint, so a
// non-empty input never produces an empty result.
func Sample(coords []domain.GeoPoint, stepKm float64) []domain.GeoPoint {
	if len(coords) == 0 {
		return nil
	}

	out := make([]domain.GeoPoint, 0)
	acc := 0.0
	for i := 1; i < len(coords); i++ {
		acc += Haversine(coords[i-1], coords[i])
		if acc >= stepKm {
			out = append(out, coords[i])
			acc = 0
		}
	}

	if len(out) == 0 {
		out = append(out, coords[len(coords)/2])
	}

	return out
}

type cell struct{ x, y int64 }

// DedupeByGrid snaps points to a square grid of side cellKm and keeps the
// first point seen per cell, preserving input order.
func DedupeByGrid(points []domain.GeoPoint, cellKm float64) []domain.GeoPoint {
	if cellKm <= 0 {
		return append([]domain.GeoPoint(nil), points...)
	}

	cellDeg := cellKm / KmPerDegree
	seen := make(map[cell]struct{}, len(points))
	out := make([]domain.GeoPoint, 0, len(points))
	for _, p := range points {
		c := cell{
			x: int64(math.Round(p.Lat / cellDeg)),
			y: int64(math.Round(p.Lng / cellDeg)),
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, p)
	}

	return out
}
