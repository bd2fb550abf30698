package config

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/GiovanniGatti/trutheval/internal/cost"
)

// Validate checks the settings a command mode depends on. Modes: "run",
// "runs", "check" and "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}

	switch mode {
	case "run":
		errs = append(errs, c.validateRun()...)
	case "runs":
	case "check":
		errs = append(errs, c.validateMonitoring()...)
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Monitoring.Enabled {
			errs = append(errs, c.validateMonitoring()...)
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateRun() []string {
	var errs []string

	switch cost.Provider(c.Oracle.Provider) {
	case cost.Anthropic:
		if c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required")
		}
	case cost.Gemini:
		if c.Gemini.Key == "" {
			errs = append(errs, "gemini.key is required")
		}
	default:
		errs = append(errs, "oracle.provider must be anthropic or gemini")
	}
	if c.Model() == "" {
		errs = append(errs, "a model name is required for the selected provider")
	}
	if c.Oracle.MaxTokens <= 0 {
		errs = append(errs, "oracle.max_tokens must be > 0")
	}
	if c.Oracle.RateLimit < 0 {
		errs = append(errs, "oracle.rate_limit must be >= 0")
	}
	if c.Oracle.Retry.MaxAttempts < 1 {
		errs = append(errs, "oracle.retry.max_attempts must be >= 1")
	}

	if c.Pipeline.Keep <= 0 || c.Pipeline.Keep > 1 {
		errs = append(errs, "pipeline.keep must be in (0, 1]")
	}
	if c.Pipeline.Levels < 2 {
		errs = append(errs, "pipeline.levels must be >= 2")
	}
	if c.Pipeline.MaxRetries < 1 {
		errs = append(errs, "pipeline.max_retries must be >= 1")
	}
	if c.Pipeline.ChunkerAttempts < 1 {
		errs = append(errs, "pipeline.chunker_attempts must be >= 1")
	}
	if c.Pipeline.Concurrency < 1 || c.Pipeline.Concurrency > 64 {
		errs = append(errs, "pipeline.concurrency must be between 1 and 64")
	}
	return errs
}

func (c *Config) validateMonitoring() []string {
	var errs []string
	m := c.Monitoring
	if m.LookbackWindowHours <= 0 {
		errs = append(errs, "monitoring.lookback_window_hours must be > 0")
	}
	if m.FailureRateThreshold < 0 || m.FailureRateThreshold > 1 {
		errs = append(errs, "monitoring.failure_rate_threshold must be in [0, 1]")
	}
	if m.MinYield < 0 || m.MinYield > 1 {
		errs = append(errs, "monitoring.min_yield must be in [0, 1]")
	}
	if m.CostThresholdUSD < 0 {
		errs = append(errs, "monitoring.cost_threshold_usd must be >= 0")
	}
	return errs
}
