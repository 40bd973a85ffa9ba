package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/splitkit/splitkit/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, 8321, cfg.Port)
	require.Equal(t, "./splitkit.db", cfg.DBPath)
	require.Equal(t, 5*time.Second, cfg.DeliveryTimeout)
	require.Equal(t, 3, cfg.DeliveryMaxAttempts)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SK_PORT", "9000")
	t.Setenv("SK_DB_PATH", "/tmp/events.db")
	t.Setenv("SK_COLLECTOR_URL", "https://collector.example.com/v1/events")
	t.Setenv("SK_DELIVERY_TIMEOUT", "30s")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, 9000, cfg.Port)
	require.Equal(t, "/tmp/events.db", cfg.DBPath)
	require.Equal(t, "https://collector.example.com/v1/events", cfg.CollectorURL)
	require.Equal(t, 30*time.Second, cfg.DeliveryTimeout)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("SK_PORT", "not-a-port")
	_, err := config.Load()
	require.Error(t, err)
}
