package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	// Point at an empty temp dir so no stray config file is picked up.
	path := writeConfig(t, "")

	cfg, err := Load(path, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.IdleThresholdMinutes)
	assert.Equal(t, 10, cfg.CheckIntervalSeconds)
	assert.Equal(t, 500, cfg.PollIntervalMs)
	assert.NotEmpty(t, cfg.LogDirectory)
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
log_directory: /tmp/usage-logs
idle_threshold_minutes: 10
check_interval_seconds: 30
poll_interval_ms: 1000
`)

	cfg, err := Load(path, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "/tmp/usage-logs", cfg.LogDirectory)
	assert.Equal(t, 10*time.Minute, cfg.IdleThreshold())
	assert.Equal(t, 30*time.Second, cfg.CheckInterval())
	assert.Equal(t, time.Second, cfg.PollInterval())
}

func TestLoad_ClampsOutOfRangeValues(t *testing.T) {
	path := writeConfig(t, `
idle_threshold_minutes: 0
check_interval_seconds: -5
poll_interval_ms: 10
`)

	cfg, err := Load(path, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.IdleThresholdMinutes)
	assert.Equal(t, 1, cfg.CheckIntervalSeconds)
	assert.Equal(t, 100, cfg.PollIntervalMs)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeConfig(t, "log_directory: [not, a, string")

	_, err := Load(path, zap.NewNop())
	assert.Error(t, err)
}
