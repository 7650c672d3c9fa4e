package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/walang/internal/config"
)

func TestServeCommand(t *testing.T) {
	assert.Equal(t, "serve", serveCmd.Name())
	for _, name := range []string{"host", "port", "cors-origin", "max-text-kb", "timeout", "shutdown-timeout",
		"rate-limit-enabled", "requests-per-minute", "requests-per-hour", "max-requests-per-day", "max-text-per-day"} {
		assert.NotNil(t, serveCmd.Flags().Lookup(name), "missing flag %s", name)
	}
}

func TestServeConfigDefaults(t *testing.T) {
	resetCommandFlags(serveCmd)
	cfg := config.DefaultConfig()

	sc, shutdown := serveConfig(serveCmd, &cfg)

	assert.Equal(t, cfg.Server.Host, sc.Host)
	assert.Equal(t, cfg.Server.Port, sc.Port)
	assert.Equal(t, cfg.Server.MaxTextKB, sc.MaxTextKB)
	assert.Equal(t, cfg.ToDetectOptions(), sc.Defaults)
	assert.InDelta(t, cfg.Detection.AutoPriorScale, sc.AutoPriorScale, 1e-9)
	assert.False(t, sc.RateLimit.Enabled)
	assert.Equal(t, 60, sc.RateLimit.RequestsPerMinute)
	assert.Equal(t, 10*time.Second, shutdown)
}

func TestServeConfigFlagOverrides(t *testing.T) {
	resetCommandFlags(serveCmd)
	t.Cleanup(func() { resetCommandFlags(serveCmd) })

	flags := serveCmd.Flags()
	require.NoError(t, flags.Set("host", "0.0.0.0"))
	require.NoError(t, flags.Set("port", "9090"))
	require.NoError(t, flags.Set("cors-origin", "https://a.example"))
	require.NoError(t, flags.Set("shutdown-timeout", "3"))
	require.NoError(t, flags.Set("rate-limit-enabled", "true"))
	require.NoError(t, flags.Set("requests-per-minute", "5"))
	require.NoError(t, flags.Set("max-text-per-day", "1024"))

	defaults := config.DefaultConfig()
	sc, shutdown := serveConfig(serveCmd, &defaults)

	assert.Equal(t, "0.0.0.0:9090", sc.Addr())
	assert.Equal(t, "https://a.example", sc.CORSOrigin)
	assert.Equal(t, 3*time.Second, shutdown)
	assert.True(t, sc.RateLimit.Enabled)
	assert.Equal(t, 5, sc.RateLimit.RequestsPerMinute)
	assert.Equal(t, 1000, sc.RateLimit.RequestsPerHour)
	assert.Equal(t, int64(1024), sc.RateLimit.MaxTextPerDay)
}

func TestServeCommandInvalidPort(t *testing.T) {
	_, _, err := executeCommand(t, "", "serve", "--port", "70000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port number")
}
