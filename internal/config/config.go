package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type HTTPConfig struct {
	Port string `yaml:"port" env:"PORT"`
	// PlanTimeout bounds a single /api/plan request.
	PlanTimeout time.Duration `yaml:"plan_timeout" env:"PLAN_TIMEOUT"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

type UpstreamConfig struct {
	UserAgent        string        `yaml:"user_agent" env:"USER_AGENT"`
	Timeout          time.Duration `yaml:"timeout" env:"UPSTREAM_TIMEOUT"`
	RoutingBaseURL   string        `yaml:"routing_base_url" env:"ROUTING_BASE_URL"`
	GeocodingBaseURL string        `yaml:"geocoding_base_url" env:"GEOCODING_BASE_URL"`
	StationsBaseURL  string        `yaml:"stations_base_url" env:"STATIONS_BASE_URL"`
	OCMKey           string        `yaml:"ocm_key" env:"OCM_KEY"`
	CountryCode      string        `yaml:"country_code" env:"GEOCODE_COUNTRY_CODE"`
	CountryName      string        `yaml:"country_name" env:"GEOCODE_COUNTRY_NAME"`
}

type CacheConfig struct {
	Backend       string        `yaml:"backend" env:"CACHE_BACKEND"`
	RedisAddr     string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	DatabaseURL   string        `yaml:"database_url" env:"DATABASE_URL"`
	SQLitePath    string        `yaml:"sqlite_path" env:"SQLITE_PATH"`
	GeocodeTTL    time.Duration `yaml:"geocode_ttl" env:"GEOCODE_CACHE_TTL"`
	RouteTTL      time.Duration `yaml:"route_ttl" env:"ROUTE_CACHE_TTL"`
	StationTTL    time.Duration `yaml:"station_ttl" env:"STATION_CACHE_TTL"`
}

type SamplingConfig struct {
	StepKm     float64 `yaml:"step_km" env:"SAMPLE_STEP_KM"`
	CellKm     float64 `yaml:"cell_km" env:"SAMPLE_CELL_KM"`
	RadiusKm   float64 `yaml:"radius_km" env:"STATION_RADIUS_KM"`
	MaxResults int     `yaml:"max_results" env:"STATION_MAX_RESULTS"`
	Workers    int     `yaml:"workers" env:"STATION_WORKERS"`
}

type RetryConfig struct {
	Attempts  int           `yaml:"attempts" env:"RETRY_ATTEMPTS"`
	BaseDelay time.Duration `yaml:"base_delay" env:"RETRY_BASE_DELAY"`
	MaxJitter time.Duration `yaml:"max_jitter" env:"RETRY_MAX_JITTER"`
}

type TariffConfig struct {
	Timezone string `yaml:"timezone" env:"TARIFF_TIMEZONE"`
}

// VehicleConfig holds the values used when a plan request omits them.
type VehicleConfig struct {
	AutonomyKm         float64 `yaml:"autonomy_km" env:"DEFAULT_AUTONOMY_KM"`
	ConsumptionWhPerKm float64 `yaml:"consumption_wh_per_km" env:"DEFAULT_CONSUMPTION_WH_PER_KM"`
	TopUpKWh           float64 `yaml:"topup_kwh" env:"DEFAULT_TOPUP_KWH"`
}

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Cache    CacheConfig    `yaml:"cache"`
	Sampling SamplingConfig `yaml:"sampling"`
	Retry    RetryConfig    `yaml:"retry"`
	Tariff   TariffConfig   `yaml:"tariff"`
	Vehicle  VehicleConfig  `yaml:"vehicle"`
}

func Default() Config {
	return Config{
		HTTP: HTTPConfig{Port: "3001", PlanTimeout: 90 * time.Second},
		Log:  LogConfig{Level: "info"},
		Upstream: UpstreamConfig{
			UserAgent:        "GreenCharge/1.0",
			Timeout:          10 * time.Second,
			RoutingBaseURL:   "https://router.project-osrm.org",
			GeocodingBaseURL: "https://nominatim.openstreetmap.org",
			StationsBaseURL:  "https://api.openchargemap.io/v3",
			CountryCode:      "fr",
			CountryName:      "France",
		},
		Cache: CacheConfig{
			Backend:    BackendMemory,
			RedisAddr:  "localhost:6379",
			SQLitePath: "data/cache.db",
			GeocodeTTL: time.Hour,
			RouteTTL:   10 * time.Minute,
			StationTTL: 30 * time.Minute,
		},
		Sampling: SamplingConfig{
			StepKm:     10,
			CellKm:     5,
			RadiusKm:   2,
			MaxResults: 40,
			Workers:    2,
		},
		Retry: RetryConfig{
			Attempts:  4,
			BaseDelay: 400 * time.Millisecond,
			MaxJitter: 200 * time.Millisecond,
		},
		Tariff: TariffConfig{Timezone: "Europe/Paris"},
		Vehicle: VehicleConfig{
			AutonomyKm:         120,
			ConsumptionWhPerKm: 160,
			TopUpKWh:           10,
		},
	}
}

// Load reads .env (if present), applies defaults, the optional YAML file and
// environment overrides, then validates the result.
func Load() (*Config, error) {
	// A missing .env is normal outside local runs.
	_ = godotenv.Load()

	cfg := Default()
	if err := hydrate(&cfg); err != nil {
		return nil, err
	}

	cfg.Cache.Backend = strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("config: "+format, args...))
	}

	if strings.TrimSpace(c.HTTP.Port) == "" {
		add("PORT required")
	}
	if c.HTTP.PlanTimeout <= 0 {
		add("PLAN_TIMEOUT must be positive")
	}

	switch c.Cache.Backend {
	case BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(c.Cache.RedisAddr) == "" {
			add("REDIS_ADDR required for redis cache backend")
		}
	case BackendPostgres:
		if strings.TrimSpace(c.Cache.DatabaseURL) == "" {
			add("DATABASE_URL required for postgres cache backend")
		}
	case BackendSQLite:
		if strings.TrimSpace(c.Cache.SQLitePath) == "" {
			add("SQLITE_PATH required for sqlite cache backend")
		}
	default:
		add("unknown CACHE_BACKEND %q", c.Cache.Backend)
	}

	if c.Cache.GeocodeTTL <= 0 || c.Cache.RouteTTL <= 0 || c.Cache.StationTTL <= 0 {
		add("cache TTLs must be positive")
	}
	if c.Upstream.Timeout <= 0 {
		add("UPSTREAM_TIMEOUT must be positive")
	}
	if c.Sampling.StepKm <= 0 || c.Sampling.CellKm <= 0 || c.Sampling.RadiusKm <= 0 {
		add("sampling distances must be positive")
	}
	if c.Sampling.MaxResults < 1 || c.Sampling.Workers < 1 {
		add("STATION_MAX_RESULTS and STATION_WORKERS must be at least 1")
	}
	if c.Retry.Attempts < 1 {
		add("RETRY_ATTEMPTS must be at least 1")
	}
	if c.Retry.BaseDelay < 0 || c.Retry.MaxJitter < 0 {
		add("retry delays must not be negative")
	}
	if _, err := time.LoadLocation(c.Tariff.Timezone); err != nil {
		add("TARIFF_TIMEZONE %q: %v", c.Tariff.Timezone, err)
	}
	if c.Vehicle.ConsumptionWhPerKm <= 0 || c.Vehicle.AutonomyKm < 0 || c.Vehicle.TopUpKWh < 0 {
		add("invalid vehicle defaults")
	}

	return errors.Join(errs...)
}

// Addr returns the listen address in :port form.
func (c *Config) Addr() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// WriteTimeout leaves room after the plan deadline to write the error body.
func (c *Config) WriteTimeout() time.Duration {
	return c.HTTP.PlanTimeout + 10*time.Second
}

// LongestTTL is the age after which no cache entry can still be live.
func (c *Config) LongestTTL() time.Duration {
	return max(c.Cache.GeocodeTTL, c.Cache.RouteTTL, c.Cache.StationTTL)
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
