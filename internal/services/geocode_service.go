package services

import (
	"context"
	"ev-charge-planner/internal/domain"
	"ev-charge-planner/internal/ports"
	"ev-charge-planner/internal/resilience"
	"fmt"
	"strings"
)

// GeocodeService resolves free-text addresses, caching by normalized query.
type GeocodeService struct {
	geocoder ports.Geocoder
	cache    *resilience.Cache[ports.GeocodeResult]
}

func NewGeocodeService(geocoder ports.Geocoder, cache *resilience.Cache[ports.GeocodeResult]) *GeocodeService {
	return &GeocodeService{geocoder: geocoder, cache: cache}
}

func (s *GeocodeService) Geocode(ctx context.Context, query string) (ports.GeocodeResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return ports.GeocodeResult{}, domain.Validation("q required")
	}

	res, err := s.cache.GetOrCompute(ctx, strings.ToLower(query), func(ctx context.Context) (ports.GeocodeResult, error) {
		return s.geocoder.Geocode(ctx, query)
	})
	if err != nil {
		return ports.GeocodeResult{}, fmt.Errorf("geocode %q: %w", query, err)
	}

	return res, nil
}
