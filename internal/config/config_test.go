package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/dengue-atlas/internal/risk"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Analytics.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Analytics.Timeout)
	assert.Equal(t, 1, cfg.Analytics.MaxAttempts)
	assert.Equal(t, 10, cfg.Resolver.SampleSize)
	assert.Equal(t, "latest", cfg.Resolver.Tie)
	assert.Equal(t, risk.DefaultNames, cfg.Risk.Scheme.Names)
	assert.Equal(t, risk.OverflowSynthesize, cfg.Risk.Scheme.Overflow)
	assert.True(t, cfg.Risk.Scheme.SeparateNoise)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 5, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.Breaker.ResetTimeout)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, []int{2023, 2024, 2025}, cfg.Dashboard.Years)
	assert.Equal(t, 3, cfg.Dashboard.Clusters)
	assert.InDelta(t, 3.0, cfg.Dashboard.Eps, 1e-9)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.NoError(t, cfg.Validate("serve"))
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
analytics:
  base_url: https://dbd.example.id
risk:
  names: [Rendah, Sedang, Kritis]
  overflow: collapse
  palette:
    Kritis: "#b91c1c"
cache:
  driver: sqlite
  dsn: cache.db
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://dbd.example.id", cfg.Analytics.BaseURL)
	assert.Equal(t, []string{"Rendah", "Sedang", "Kritis"}, cfg.Risk.Scheme.Names)
	assert.Equal(t, risk.OverflowCollapse, cfg.Risk.Scheme.Overflow)
	assert.Equal(t, "#b91c1c", cfg.Risk.Palette["kritis"], "viper lower-cases map keys")
	assert.Equal(t, "sqlite", cfg.Cache.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, 10, cfg.Resolver.SampleSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
cache:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("DENGUE_CACHE_DRIVER", "none")
	t.Setenv("DENGUE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "none", cfg.Cache.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DENGUE_SERVER_PORT=3000\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("DENGUE_SERVER_PORT") }) //nolint:errcheck

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("DENGUE_ANALYTICS_BASE_URL", "http://backend:8000")
	t.Setenv("DENGUE_BREAKER_RESET_TIMEOUT", "1m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://backend:8000", cfg.Analytics.BaseURL)
	assert.Equal(t, time.Minute, cfg.Breaker.ResetTimeout)
}

func TestLoadBadYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [port"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with the fields every mode needs.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Analytics.BaseURL = "http://localhost:8000"
	cfg.Boundary.Source = "kelurahan.geojson"
	cfg.Risk.Scheme = risk.DefaultScheme()
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateServe(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("serve"))

	cfg.Server.Port = 0
	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")

	// Port only matters when serving.
	assert.NoError(t, cfg.Validate("dashboard"))
}

func TestValidate_CollectsProblems(t *testing.T) {
	cfg := validDefaults()
	cfg.Analytics.BaseURL = ""
	cfg.Boundary.Source = ""
	cfg.Resolver.Tie = "middle"
	cfg.Cache.Driver = "redis"

	err := cfg.Validate("resolve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analytics.base_url is required")
	assert.Contains(t, err.Error(), "boundary.source is required")
	assert.Contains(t, err.Error(), "resolver.tie")
	assert.Contains(t, err.Error(), "cache.dsn is required for redis")
}

func TestValidate_NoiseLabelCollision(t *testing.T) {
	cfg := validDefaults()
	cfg.Risk.Scheme.NoiseLabel = "Kritis"

	err := cfg.Validate("dashboard")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collides with tier")
}

func TestValidateRekapNeedsNoBackend(t *testing.T) {
	cfg := &Config{}
	cfg.Risk.Scheme = risk.DefaultScheme()
	assert.NoError(t, cfg.Validate("rekap"))
}

func TestValidateRiskScheme(t *testing.T) {
	cfg := validDefaults()
	cfg.Risk.Scheme.Overflow = "wrap"
	err := cfg.Validate("forecast")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overflow")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
