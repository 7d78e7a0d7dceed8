package providers

import (
	"context"
	"ev-charge-planner/internal/domain"
	"ev-charge-planner/internal/ports"
	"fmt"
	"strings"
	"sync"
)

// MockRouteProvider returns a fixed route and counts calls.
type MockRouteProvider struct {
	mu    sync.Mutex
	Data  ports.RouteData
	Err   error
	Calls int
}

func (m *MockRouteProvider) Route(ctx context.Context, from, to domain.GeoPoint) (ports.RouteData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return ports.RouteData{}, m.Err
	}
	return m.Data, nil
}

// MockGeocoder resolves queries from a map keyed by lower-cased query.
type MockGeocoder struct {
	mu      sync.Mutex
	Results map[string]ports.GeocodeResult
	Calls   int
}

func (m *MockGeocoder) Geocode(ctx context.Context, query string) (ports.GeocodeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	r, ok := m.Results[strings.ToLower(strings.TrimSpace(query))]
	if !ok {
		return ports.GeocodeResult{}, domain.NewError(domain.KindNotFound, "mock.Geocode", "not found", nil)
	}
	return r, nil
}

// MockStationProvider answers by sample point key ("lat,lng" at 4 decimals).
// Points listed in Errs fail with the given error.
type MockStationProvider struct {
	mu       sync.Mutex
	ByPoint  map[string][]domain.ChargeStation
	Errs     map[string]error
	Default  []domain.ChargeStation
	Calls    int
	inFlight int
	MaxSeen  int
	// Hook runs inside the call without the lock held, e.g. to slow it down.
	Hook func(center domain.GeoPoint)
}

func (m *MockStationProvider) StationsAround(ctx context.Context, center domain.GeoPoint, radiusKm float64, maxResults int) ([]domain.ChargeStation, error) {
	key := center.Key(4)

	m.mu.Lock()
	m.Calls++
	m.inFlight++
	if m.inFlight > m.MaxSeen {
		m.MaxSeen = m.inFlight
	}
	hook := m.Hook
	m.mu.Unlock()

	if hook != nil {
		hook(center)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--

	if err, ok := m.Errs[key]; ok {
		return nil, err
	}
	if s, ok := m.ByPoint[key]; ok {
		return s, nil
	}
	if m.Default != nil {
		return m.Default, nil
	}
	return nil, fmt.Errorf("mock: no stations configured for %s", key)
}
