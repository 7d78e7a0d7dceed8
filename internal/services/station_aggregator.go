package services

import (
	"context"
	"ev-charge-planner/internal/domain"
	"ev-charge-planner/internal/geo"
	"ev-charge-planner/internal/platform/obs"
	"ev-charge-planner/internal/ports"
	"ev-charge-planner/internal/resilience"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

const sampleKeyDecimals = 4

type AggregatorConfig struct {
	StepKm     float64
	CellKm     float64
	RadiusKm   float64
	MaxResults int
	Workers    int
}

func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		StepKm:     10,
		CellKm:     5,
		RadiusKm:   2,
		MaxResults: 40,
		Workers:    2,
	}
}

// StationAggregator collects charging stations along a route by querying the
// station provider around sparse sample points.
type StationAggregator struct {
	provider ports.StationProvider
	cache    *resilience.Cache[[]domain.ChargeStation]
	cfg      AggregatorConfig
	logger   *zap.Logger
}

func NewStationAggregator(
	provider ports.StationProvider,
	cache *resilience.Cache[[]domain.ChargeStation],
	cfg AggregatorConfig,
	logger *zap.Logger,
) *StationAggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StationAggregator{provider: provider, cache: cache, cfg: cfg, logger: logger}
}

// FetchAlongRoute returns the stations found near the route, deduplicated by
// ID. Order follows sample position then provider order; a repeated ID keeps
// its first position and takes the last-seen attributes.
//
// Failed samples are skipped. The call only fails when no station at all was
// obtained: with the last sample error if any sample failed, otherwise with
// ErrNoStationsAvailable.
func (a *StationAggregator) FetchAlongRoute(ctx context.Context, coords []domain.GeoPoint) (_ []domain.ChargeStation, err error) {
	defer obs.Time(ctx, a.logger, "stations.FetchAlongRoute")(&err)

	points := geo.DedupeByGrid(geo.Sample(coords, a.cfg.StepKm), a.cfg.CellKm)
	radius := strconv.FormatFloat(a.cfg.RadiusKm, 'f', -1, 64)

	results := MapOrdered(ctx, points, a.cfg.Workers,
		func(ctx context.Context, _ int, pt domain.GeoPoint) ([]domain.ChargeStation, error) {
			key := pt.Key(sampleKeyDecimals) + ":d" + radius
			return a.cache.GetOrCompute(ctx, key, func(ctx context.Context) ([]domain.ChargeStation, error) {
				return a.provider.StationsAround(ctx, pt, a.cfg.RadiusKm, a.cfg.MaxResults)
			})
		},
	)

	var (
		out     []domain.ChargeStation
		index   = make(map[string]int)
		lastErr error
		failed  int
	)
	for i, r := range results {
		if r.Err != nil {
			failed++
			lastErr = r.Err
			a.logger.Warn("station query failed",
				zap.String("req_id", obs.RequestID(ctx)),
				zap.String("point", points[i].Key(sampleKeyDecimals)),
				zap.Error(r.Err),
			)
			continue
		}
		for _, s := range r.Value {
			if at, ok := index[s.ID]; ok {
				out[at] = s
				continue
			}
			index[s.ID] = len(out)
			out = append(out, s)
		}
	}

	a.logger.Debug("stations aggregated",
		zap.String("req_id", obs.RequestID(ctx)),
		zap.Int("samples", len(points)),
		zap.Int("failed", failed),
		zap.Int("stations", len(out)),
	)

	if len(out) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("fetch stations along route: %w", lastErr)
		}
		return nil, domain.ErrNoStationsAvailable
	}

	return out, nil
}
