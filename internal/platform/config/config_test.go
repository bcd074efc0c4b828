package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("STORE_TIMEOUT", "")
	t.Setenv("VETTING_ADDR", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 3*time.Second, cfg.StoreTimeout)
	assert.Equal(t, "vetting.alerts", cfg.Alerts.Subject)
	assert.Equal(t, "0 2 * * *", cfg.Workers.ExpirySweepSchedule)
	assert.Equal(t, cfg.StoreTimeout, cfg.Redis.ReadTimeout)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("VETTING_ADDR", ":9090")
	t.Setenv("STORE_TIMEOUT", "750ms")
	t.Setenv("RECONCILE_INTERVAL", "1s")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 750*time.Millisecond, cfg.StoreTimeout)
	assert.Equal(t, time.Second, cfg.Workers.ReconcileInterval)
	assert.InDelta(t, 2.5, cfg.RateLimitRPS, 1e-9)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("STORE_TIMEOUT", "soon")
	_, err := FromEnv()
	require.Error(t, err)

	t.Setenv("STORE_TIMEOUT", "0s")
	_, err = FromEnv()
	require.Error(t, err)

	t.Setenv("STORE_TIMEOUT", "1s")
	t.Setenv("RATE_LIMIT_BURST", "lots")
	_, err = FromEnv()
	require.Error(t, err)
}
