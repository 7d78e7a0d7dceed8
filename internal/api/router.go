package api

import (
	"ev-charge-planner/internal/api/handlers"
	"ev-charge-planner/internal/config"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(
	planner handlers.Planner,
	geocoder handlers.Geocoder,
	defaults config.VehicleConfig,
	planTimeout time.Duration,
	logger *zap.Logger,
) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	health := &handlers.HealthHandler{Logger: logger}
	geo := &handlers.GeocodeHandler{Geocoder: geocoder, Logger: logger}
	plan := &handlers.PlanHandler{Planner: planner, Defaults: defaults, Timeout: planTimeout, Logger: logger}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/", health.Banner)
	r.Get("/health", health.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/geocode", geo.Geocode)
		r.Post("/plan", plan.Plan)
	})

	return r
}
