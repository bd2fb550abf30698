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

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("TRUTHBENCH_ANTHROPIC_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Oracle.Provider)
	assert.Equal(t, 4096, cfg.Oracle.MaxTokens)
	assert.Nil(t, cfg.Oracle.Temperature)
	assert.InDelta(t, 2.0, cfg.Oracle.RateLimit, 0.001)
	assert.Equal(t, 3, cfg.Oracle.Retry.MaxAttempts)
	assert.Equal(t, 500, cfg.Oracle.Retry.InitialBackoffMs)
	assert.Equal(t, 30000, cfg.Oracle.Retry.MaxBackoffMs)
	assert.Equal(t, 5, cfg.Oracle.Circuit.FailureThreshold)
	assert.Equal(t, 30, cfg.Oracle.Circuit.ResetTimeoutSecs)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Anthropic.Model)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.InDelta(t, 0.8, cfg.Pipeline.Keep, 0.001)
	assert.Equal(t, 5, cfg.Pipeline.Levels)
	assert.Equal(t, 8, cfg.Pipeline.MaxRetries)
	assert.Equal(t, 3, cfg.Pipeline.ChunkerAttempts)
	assert.Empty(t, cfg.Pipeline.StopWordsFile)
	assert.Equal(t, uint64(0), cfg.Pipeline.Seed)
	assert.Equal(t, 1, cfg.Pipeline.Concurrency)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "truthbench.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Monitoring.Enabled)
	assert.Equal(t, 300, cfg.Monitoring.CheckIntervalSecs)
	assert.Equal(t, 24, cfg.Monitoring.LookbackWindowHours)
	assert.InDelta(t, 0.2, cfg.Monitoring.FailureRateThreshold, 1e-9)
	assert.Empty(t, cfg.Anthropic.Key)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
oracle:
  provider: gemini
  temperature: 0.2
pipeline:
  keep: 0.5
  levels: 6
store:
  driver: postgres
  database_url: postgres://localhost/bench
log:
  level: debug
  format: console
pricing:
  gemini:
    - model: gemini-2.5-flash
      input: 1
      output: 2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.Oracle.Provider)
	require.NotNil(t, cfg.Oracle.Temperature)
	assert.InDelta(t, 0.2, *cfg.Oracle.Temperature, 0.001)
	assert.InDelta(t, 0.5, cfg.Pipeline.Keep, 0.001)
	assert.Equal(t, 6, cfg.Pipeline.Levels)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, 8, cfg.Pipeline.MaxRetries)
	assert.Equal(t, "gemini-2.5-flash", cfg.Model())

	rates := cfg.Pricing.Rates()
	assert.InDelta(t, 1.0, rates.Gemini["gemini-2.5-flash"].Input, 0.001)
	assert.InDelta(t, 10.0, rates.Gemini["gemini-2.5-pro"].Output, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("TRUTHBENCH_STORE_DRIVER", "postgres")
	t.Setenv("TRUTHBENCH_LOG_LEVEL", "warn")
	t.Setenv("TRUTHBENCH_PIPELINE_LEVELS", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 7, cfg.Pipeline.Levels)
}

func TestLoadAPIKeysFromEnv(t *testing.T) {
	chdirTemp(t)

	t.Setenv("TRUTHBENCH_ANTHROPIC_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-fallback")
	t.Setenv("TRUTHBENCH_GEMINI_KEY", "gm-key")
	t.Setenv("TRUTHBENCH_ORACLE_TEMPERATURE", "0.7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-fallback", cfg.Anthropic.Key)
	assert.Equal(t, "gm-key", cfg.Gemini.Key)
	require.NotNil(t, cfg.Oracle.Temperature)
	assert.InDelta(t, 0.7, *cfg.Oracle.Temperature, 0.001)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("oracle: [\n"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestOraclePolicies(t *testing.T) {
	o := OracleConfig{
		Retry:   RetryConfig{MaxAttempts: 4, InitialBackoffMs: 100, MaxBackoffMs: 2000},
		Circuit: CircuitConfig{FailureThreshold: 3, ResetTimeoutSecs: 10},
	}

	retry := o.RetryPolicy()
	assert.Equal(t, 4, retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, retry.InitialBackoff)
	assert.Equal(t, 2*time.Second, retry.MaxBackoff)
	assert.InDelta(t, 2.0, retry.Multiplier, 0.001)

	breaker := o.BreakerPolicy()
	assert.Equal(t, 3, breaker.FailureThreshold)
	assert.Equal(t, 10*time.Second, breaker.ResetTimeout)
}

func TestPricingRates_DefaultsKept(t *testing.T) {
	rates := PricingConfig{
		Anthropic: []ModelPricing{{Model: "claude-custom", Input: 1, Output: 5}},
	}.Rates()

	assert.Contains(t, rates.Anthropic, "claude-custom")
	assert.Contains(t, rates.Anthropic, "claude-sonnet-4-5-20250929")
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
