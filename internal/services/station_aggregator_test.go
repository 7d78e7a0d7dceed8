package services

import (
	"context"
	"errors"
	"ev-charge-planner/internal/adapters/providers"
	"ev-charge-planner/internal/domain"
	"ev-charge-planner/internal/geo"
	"testing"
	"time"
)

func newTestAggregator(p *providers.MockStationProvider) *StationAggregator {
	return NewStationAggregator(p, newTestCache[[]domain.ChargeStation]("ocm"), DefaultAggregatorConfig(), nil)
}

func samplePoints(coords []domain.GeoPoint) []domain.GeoPoint {
	cfg := DefaultAggregatorConfig()
	return geo.DedupeByGrid(geo.Sample(coords, cfg.StepKm), cfg.CellKm)
}

func TestFetchAlongRouteDedupesByID(t *testing.T) {
	coords := straightRoute(24)
	pts := samplePoints(coords)
	if len(pts) != 2 {
		t.Fatalf("expected 2 sample points, got %d", len(pts))
	}

	first := domain.NewChargeStation("42", "Old name", pts[0], []float64{22})
	second := domain.NewChargeStation("42", "New name", pts[1], []float64{150})

	p := &providers.MockStationProvider{
		ByPoint: map[string][]domain.ChargeStation{
			pts[0].Key(4): {first, acStation("7", 22)},
			pts[1].Key(4): {second, acStation("9", 7)},
		},
		// Slow down the first sample so it completes last.
		Hook: func(center domain.GeoPoint) {
			if center == pts[0] {
				time.Sleep(30 * time.Millisecond)
			}
		},
	}

	got, err := newTestAggregator(p).FetchAlongRoute(context.Background(), coords)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantIDs := []string{"42", "7", "9"}
	if len(got) != len(wantIDs) {
		t.Fatalf("got %d stations, want %d", len(got), len(wantIDs))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("station[%d].ID = %q, want %q", i, got[i].ID, id)
		}
	}
	if got[0].Name != "New name" || got[0].Class != domain.ClassDC {
		t.Errorf("station 42 should carry last-seen attributes, got %+v", got[0])
	}
}

func TestFetchAlongRouteToleratesPartialFailure(t *testing.T) {
	coords := straightRoute(24)
	pts := samplePoints(coords)

	p := &providers.MockStationProvider{
		Errs: map[string]error{
			pts[0].Key(4): domain.NewError(domain.KindUpstreamUnavailable, "ocm", "upstream unavailable", nil),
		},
		ByPoint: map[string][]domain.ChargeStation{
			pts[1].Key(4): {acStation("1", 22)},
		},
	}

	got, err := newTestAggregator(p).FetchAlongRoute(context.Background(), coords)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("got %+v, want station 1 only", got)
	}
}

func TestFetchAlongRouteFailures(t *testing.T) {
	coords := straightRoute(24)

	t.Run("all samples fail", func(t *testing.T) {
		limited := domain.NewError(domain.KindRateLimited, "ocm", "upstream rate limited", nil)
		errs := map[string]error{}
		for _, pt := range samplePoints(coords) {
			errs[pt.Key(4)] = limited
		}

		_, err := newTestAggregator(&providers.MockStationProvider{Errs: errs}).FetchAlongRoute(context.Background(), coords)
		if domain.KindOf(err) != domain.KindRateLimited {
			t.Fatalf("kind = %v, want rate limited (err=%v)", domain.KindOf(err), err)
		}
	})

	t.Run("no stations anywhere", func(t *testing.T) {
		p := &providers.MockStationProvider{Default: []domain.ChargeStation{}}

		_, err := newTestAggregator(p).FetchAlongRoute(context.Background(), coords)
		if !errors.Is(err, domain.ErrNoStationsAvailable) {
			t.Fatalf("err = %v, want no stations available", err)
		}
	})
}

func TestFetchAlongRouteUsesCacheAndBoundedWorkers(t *testing.T) {
	// About 90 km: one sample every 10 km, each in its own cell.
	coords := straightRoute(82)
	n := len(samplePoints(coords))
	if n < 4 {
		t.Fatalf("expected several sample points, got %d", n)
	}

	p := &providers.MockStationProvider{
		Default: []domain.ChargeStation{acStation("1", 22)},
		Hook:    func(domain.GeoPoint) { time.Sleep(5 * time.Millisecond) },
	}
	agg := newTestAggregator(p)

	for i := 0; i < 2; i++ {
		if _, err := agg.FetchAlongRoute(context.Background(), coords); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
	}

	if p.Calls != n {
		t.Fatalf("provider calls = %d, want %d (second pass served from cache)", p.Calls, n)
	}
	if p.MaxSeen > DefaultAggregatorConfig().Workers {
		t.Fatalf("max concurrent queries = %d, want <= %d", p.MaxSeen, DefaultAggregatorConfig().Workers)
	}
}
