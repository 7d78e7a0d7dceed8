package services

import (
	"ev-charge-planner/internal/adapters/cache"
	"ev-charge-planner/internal/domain"
	"ev-charge-planner/internal/resilience"
	"time"
)

func newTestCache[T any](name string) *resilience.Cache[T] {
	return resilience.NewCache[T](name, time.Minute, cache.NewMemoryStore(time.Minute), resilience.Policy{Attempts: 1}, nil)
}

// straightRoute returns points heading north from (45, 5) every 0.01 degree
// of latitude, about 1.11 km apart.
func straightRoute(n int) []domain.GeoPoint {
	out := make([]domain.GeoPoint, n)
	for i := range out {
		out[i] = domain.GeoPoint{Lat: 45 + float64(i)*0.01, Lng: 5}
	}
	return out
}

func acStation(id string, kw float64) domain.ChargeStation {
	return domain.NewChargeStation(id, "AC "+id, domain.GeoPoint{Lat: 45, Lng: 5}, []float64{kw})
}

func dcStation(id string, kw float64) domain.ChargeStation {
	return domain.NewChargeStation(id, "DC "+id, domain.GeoPoint{Lat: 45, Lng: 5}, []float64{kw})
}
