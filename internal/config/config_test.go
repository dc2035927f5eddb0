package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.openchargemap.io/v3", cfg.OCM.BaseURL)
	assert.Equal(t, 25, cfg.OCM.MaxResults)
	assert.InDelta(t, 2, cfg.OCM.RatePerSecond, 0.001)
	assert.Equal(t, 4, cfg.OCM.RateBurst)
	assert.Equal(t, 6, cfg.OCM.CacheTTLHours)
	assert.InDelta(t, 10, cfg.Search.WalkingTimeMinutes, 0.001)
	assert.InDelta(t, 5, cfg.Search.RadiusMiles, 0.001)
	assert.Equal(t, 5, cfg.Search.FetchConcurrency)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "charge-scout.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/chargescout
search:
  walking_time_minutes: 15
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/chargescout", cfg.Store.DatabaseURL)
	assert.InDelta(t, 15, cfg.Search.WalkingTimeMinutes, 0.001)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.InDelta(t, 5, cfg.Search.RadiusMiles, 0.001)
	assert.Equal(t, 25, cfg.OCM.MaxResults)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("CHARGESCOUT_STORE_DRIVER", "postgres")
	t.Setenv("CHARGESCOUT_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("CHARGESCOUT_SERVER_PORT", "3000")
	t.Setenv("CHARGESCOUT_OCM_KEY", "env-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "env-key", cfg.OCM.Key)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(Log{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(Log{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(Log{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
