package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Oracle.Provider = "anthropic"
	cfg.Oracle.MaxTokens = 4096
	cfg.Oracle.RateLimit = 2
	cfg.Oracle.Retry.MaxAttempts = 3
	cfg.Anthropic.Key = "sk-ant-key"
	cfg.Anthropic.Model = "claude-sonnet-4-5-20250929"
	cfg.Gemini.Model = "gemini-2.5-flash"
	cfg.Pipeline.Keep = 0.8
	cfg.Pipeline.Levels = 4
	cfg.Pipeline.MaxRetries = 8
	cfg.Pipeline.ChunkerAttempts = 3
	cfg.Pipeline.Concurrency = 1
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "truthbench.db"
	cfg.Server.Port = 8080
	cfg.Monitoring.LookbackWindowHours = 24
	cfg.Monitoring.FailureRateThreshold = 0.2
	return cfg
}

func TestValidateRun_AllPresent(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("run"))
}

func TestValidateRun_MissingKey(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = ""

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")

	cfg.Oracle.Provider = "gemini"
	err = cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini.key is required")

	cfg.Gemini.Key = "gm"
	assert.NoError(t, cfg.Validate("run"))
}

func TestValidateRun_UnknownProvider(t *testing.T) {
	cfg := validDefaults()
	cfg.Oracle.Provider = "openai"

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle.provider")
}

func TestValidateRun_PipelineBounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"keep zero", func(c *Config) { c.Pipeline.Keep = 0 }, "pipeline.keep"},
		{"keep above one", func(c *Config) { c.Pipeline.Keep = 1.5 }, "pipeline.keep"},
		{"one level", func(c *Config) { c.Pipeline.Levels = 1 }, "pipeline.levels"},
		{"no retries", func(c *Config) { c.Pipeline.MaxRetries = 0 }, "pipeline.max_retries"},
		{"no chunker attempts", func(c *Config) { c.Pipeline.ChunkerAttempts = 0 }, "pipeline.chunker_attempts"},
		{"zero concurrency", func(c *Config) { c.Pipeline.Concurrency = 0 }, "pipeline.concurrency"},
		{"zero max tokens", func(c *Config) { c.Oracle.MaxTokens = 0 }, "oracle.max_tokens"},
		{"no attempts", func(c *Config) { c.Oracle.Retry.MaxAttempts = 0 }, "oracle.retry.max_attempts"},
		{"negative rate", func(c *Config) { c.Oracle.RateLimit = -1 }, "oracle.rate_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate("run")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_KeepOneIsAllowed(t *testing.T) {
	cfg := validDefaults()
	cfg.Pipeline.Keep = 1
	assert.NoError(t, cfg.Validate("run"))
}

func TestValidateStore(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("runs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateRuns_NoKeyNeeded(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = ""
	assert.NoError(t, cfg.Validate("runs"))
}

func TestValidateServe(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = ""
	assert.NoError(t, cfg.Validate("serve"))

	cfg.Server.Port = 0
	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateCheck(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("check"))

	cfg := validDefaults()
	cfg.Monitoring.LookbackWindowHours = 0
	cfg.Monitoring.MinYield = 1.5
	err := cfg.Validate("check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitoring.lookback_window_hours")
	assert.Contains(t, err.Error(), "monitoring.min_yield")
}

func TestValidateServe_MonitoringOnlyWhenEnabled(t *testing.T) {
	cfg := validDefaults()
	cfg.Monitoring.FailureRateThreshold = 2
	assert.NoError(t, cfg.Validate("serve"))

	cfg.Monitoring.Enabled = true
	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitoring.failure_rate_threshold")
}
