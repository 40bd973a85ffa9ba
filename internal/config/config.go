// Package config loads splitkit settings from a .env file and environment
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Collector
	Port         int
	DBPath       string
	Token        string // empty means generate at startup
	RegistryPath string

	// Client
	StatePath    string
	CollectorURL string

	// Delivery worker
	DeliveryTimeout     time.Duration
	DeliveryQueueSize   int
	DeliveryMaxAttempts int
}

// Load reads configuration from the environment, after loading .env when
// one is present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - a .env file is optional
	}

	cfg := &Config{
		Port:                8321,
		DBPath:              "./splitkit.db",
		Token:               os.Getenv("SK_TOKEN"),
		RegistryPath:        envOrDefault("SK_REGISTRY", "./experiments.json"),
		StatePath:           envOrDefault("SK_STATE_PATH", "./splitkit-state.json"),
		CollectorURL:        envOrDefault("SK_COLLECTOR_URL", "http://localhost:8321/v1/events"),
		DeliveryTimeout:     5 * time.Second,
		DeliveryQueueSize:   256,
		DeliveryMaxAttempts: 3,
	}

	if p := os.Getenv("SK_PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid SK_PORT %q: %w", p, err)
		}
		cfg.Port = port
	}

	if db := os.Getenv("SK_DB_PATH"); db != "" {
		cfg.DBPath = db
	}

	if t := os.Getenv("SK_DELIVERY_TIMEOUT"); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			return nil, fmt.Errorf("invalid SK_DELIVERY_TIMEOUT %q: %w", t, err)
		}
		cfg.DeliveryTimeout = d
	}

	return cfg, nil
}

func envOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
