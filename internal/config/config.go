// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Port     string
	Env      string
	CacheTTL time.Duration

	// Catalog source: file wins over database, database over the embedded table
	CatalogFile     string
	CatalogDBDriver string
	CatalogDBDSN    string

	// Boundary policy for user location
	CityCenterLat  float64
	CityCenterLng  float64
	FarThresholdKm float64
	DefaultRegion  string

	// ETA jitter; zero seed means seed from the clock
	ETAJitterPercent float64
	ETASeed          uint64

	// NATS board publisher; empty URL disables it
	NATSURL           string
	NATSSubjectPrefix string
	PublishInterval   time.Duration

	CORSAllowedOrigins []string
}

// Load reads .env (if present) and the environment, applying defaults.
func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "3000"),
		Env:               getEnv("ENV", "development"),
		CatalogFile:       os.Getenv("CATALOG_FILE"),
		CatalogDBDriver:   getEnv("CATALOG_DB_DRIVER", "sqlite"),
		CatalogDBDSN:      os.Getenv("CATALOG_DB_DSN"),
		DefaultRegion:     getEnv("DEFAULT_REGION", "Merkez"),
		NATSURL:           os.Getenv("NATS_URL"),
		NATSSubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "durak.eta"),
	}

	var err error
	if cfg.CacheTTL, err = getSecondsEnv("CACHE_TTL_SECONDS", 120); err != nil {
		return nil, err
	}
	if cfg.PublishInterval, err = getSecondsEnv("PUBLISH_INTERVAL_SECONDS", 30); err != nil {
		return nil, err
	}
	if cfg.CityCenterLat, err = getFloatEnv("CITY_CENTER_LAT", 37.1591); err != nil {
		return nil, err
	}
	if cfg.CityCenterLng, err = getFloatEnv("CITY_CENTER_LNG", 38.7969); err != nil {
		return nil, err
	}
	if cfg.FarThresholdKm, err = getFloatEnv("FAR_THRESHOLD_KM", 50); err != nil {
		return nil, err
	}
	if cfg.ETAJitterPercent, err = getFloatEnv("ETA_JITTER_PERCENT", 20); err != nil {
		return nil, err
	}

	if v := os.Getenv("ETA_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ETA_SEED: %q", v)
		}
		cfg.ETASeed = seed
	}

	cfg.CORSAllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", "*"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// JitterBand returns the ETA jitter as a fraction
func (c *Config) JitterBand() float64 {
	return c.ETAJitterPercent / 100
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if c.ETAJitterPercent < 0 || c.ETAJitterPercent > 100 {
		return fmt.Errorf("ETA_JITTER_PERCENT must be within [0,100], got %v", c.ETAJitterPercent)
	}
	if c.CityCenterLat < -90 || c.CityCenterLat > 90 || c.CityCenterLng < -180 || c.CityCenterLng > 180 {
		return errors.New("CITY_CENTER_LAT/CITY_CENTER_LNG out of range")
	}
	if c.CatalogDBDSN != "" && c.CatalogDBDriver != "sqlite" && c.CatalogDBDriver != "pgx" {
		return fmt.Errorf("CATALOG_DB_DRIVER must be sqlite or pgx, got %q", c.CatalogDBDriver)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultSeconds int) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return time.Duration(defaultSeconds) * time.Second, nil
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, value)
	}
	return time.Duration(seconds) * time.Second, nil
}

func getFloatEnv(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, value)
	}
	return f, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
