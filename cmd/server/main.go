package main

import (
	"context"
	"errors"
	"ev-charge-planner/internal/adapters/cache"
	"ev-charge-planner/internal/adapters/providers"
	"ev-charge-planner/internal/api"
	"ev-charge-planner/internal/config"
	"ev-charge-planner/internal/domain"
	"ev-charge-planner/internal/platform/db"
	"ev-charge-planner/internal/platform/logging"
	"ev-charge-planner/internal/ports"
	"ev-charge-planner/internal/resilience"
	"ev-charge-planner/internal/services"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// purger is implemented by the SQL-backed stores.
type purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// main is the application composition root.
// It wires concrete adapters (OSRM, Nominatim, Open Charge Map, cache store) behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if p, ok := store.(purger); ok {
		go purgeLoop(ctx, p, cfg.LongestTTL(), logger)
	}

	loc, err := time.LoadLocation(cfg.Tariff.Timezone)
	if err != nil {
		return fmt.Errorf("load tariff timezone: %w", err)
	}

	policy := resilience.Policy{
		Attempts:  cfg.Retry.Attempts,
		BaseDelay: cfg.Retry.BaseDelay,
		MaxJitter: cfg.Retry.MaxJitter,
	}

	session := &http.Client{Timeout: cfg.Upstream.Timeout}
	ua := cfg.Upstream.UserAgent

	var (
		routeProvider   ports.RouteProvider   = providers.NewOSRMRouteProvider(cfg.Upstream.RoutingBaseURL, ua, session, logger)
		geocoder        ports.Geocoder        = providers.NewNominatimGeocoder(cfg.Upstream.GeocodingBaseURL, ua, cfg.Upstream.CountryCode, cfg.Upstream.CountryName, session, logger)
		stationProvider ports.StationProvider = providers.NewOCMStationProvider(cfg.Upstream.StationsBaseURL, cfg.Upstream.OCMKey, ua, session, logger)
	)

	geoCache := resilience.NewCache[ports.GeocodeResult]("geo", cfg.Cache.GeocodeTTL, store, policy, logger)
	routeCache := resilience.NewCache[ports.RouteData]("route", cfg.Cache.RouteTTL, store, policy, logger)
	stationCache := resilience.NewCache[[]domain.ChargeStation]("ocm", cfg.Cache.StationTTL, store, policy, logger)

	aggregator := services.NewStationAggregator(stationProvider, stationCache, services.AggregatorConfig{
		StepKm:     cfg.Sampling.StepKm,
		CellKm:     cfg.Sampling.CellKm,
		RadiusKm:   cfg.Sampling.RadiusKm,
		MaxResults: cfg.Sampling.MaxResults,
		Workers:    cfg.Sampling.Workers,
	}, logger)

	planner := services.NewPlanner(
		services.NewRouteService(routeProvider, routeCache, time.Now),
		aggregator,
		services.NewOptimizer(domain.DefaultTariff(loc)),
		logger,
	)
	geocodeService := services.NewGeocodeService(geocoder, geoCache)

	router := api.NewRouter(planner, geocodeService, cfg.Vehicle, cfg.HTTP.PlanTimeout, logger)

	// Plans are cut off at PLAN_TIMEOUT; the write deadline sits past it.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout(),
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("cache_backend", cfg.Cache.Backend),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// openStore builds the cache store selected by CACHE_BACKEND. The returned
// func releases its connections.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (resilience.Store, func(), error) {
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Cache.RedisAddr, err)
		}
		return cache.NewRedisStore(client, "evplanner"), func() { client.Close() }, nil

	case config.BackendPostgres:
		conn, err := db.Open(cfg.Cache.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := cache.InitSchema(ctx, conn); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return cache.NewSQLStore(conn), func() { conn.Close() }, nil

	case config.BackendSQLite:
		conn, err := db.OpenSQLite(cfg.Cache.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := cache.InitSqliteSchema(ctx, conn); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return cache.NewSqliteStore(conn), func() { conn.Close() }, nil

	default:
		logger.Debug("using in-process cache")
		return cache.NewMemoryStore(2 * cfg.LongestTTL()), func() {}, nil
	}
}

// purgeLoop deletes expired rows from SQL stores until ctx ends.
func purgeLoop(ctx context.Context, p purger, every time.Duration, logger *zap.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := p.PurgeExpired(ctx, now)
			if err != nil {
				logger.Warn("cache purge failed", zap.Error(err))
				continue
			}
			logger.Debug("cache purged", zap.Int64("rows", n))
		}
	}
}
