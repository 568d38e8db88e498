package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Port        string
	DatabaseURL string
	Location    *time.Location

	SessionSecret string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	RedisURL         string
	BookingRateLimit int

	CalendarSyncInterval    time.Duration
	CalendarSyncMaxAttempts int

	MigrateOnStart bool

	OTelEnabled  bool
	OTelEndpoint string
	OTelSampling float64
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment:        getEnv("ENV", "development"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		OTelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	var err error
	if cfg.Port, err = port("PORT", "8080"); err != nil {
		return nil, err
	}

	tz := getEnv("APP_TIMEZONE", "America/Sao_Paulo")
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("APP_TIMEZONE must be an IANA zone (got %q): %w", tz, err)
	}
	if cfg.BookingRateLimit, err = intVar("BOOKING_RATE_LIMIT", 10); err != nil {
		return nil, err
	}
	if cfg.CalendarSyncInterval, err = durationVar("CALENDAR_SYNC_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.CalendarSyncMaxAttempts, err = intVar("CALENDAR_SYNC_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.MigrateOnStart, err = boolVar("MIGRATIONS_ON_START", true); err != nil {
		return nil, err
	}
	if cfg.OTelEnabled, err = boolVar("OTEL_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.OTelSampling, err = floatVar("OTEL_SAMPLING_RATIO", 1); err != nil {
		return nil, err
	}
	if cfg.OTelSampling < 0 || cfg.OTelSampling > 1 {
		return nil, fmt.Errorf("OTEL_SAMPLING_RATIO must be within [0,1] (got %v)", cfg.OTelSampling)
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func port(key, fallback string) (string, error) {
	v := getEnv(key, fallback)
	p, err := strconv.Atoi(v)
	if err != nil || p < 1 || p > 65535 {
		return "", fmt.Errorf("%s must be a valid TCP port (got %q)", key, v)
	}
	return v, nil
}

func intVar(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer (got %q)", key, v)
	}
	return n, nil
}

func durationVar(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s must be a non-negative duration (got %q)", key, v)
	}
	return d, nil
}

func boolVar(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean (got %q)", key, v)
	}
	return b, nil
}

func floatVar(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number (got %q)", key, v)
	}
	return f, nil
}
