package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/GiovanniGatti/trutheval/internal/cost"
	"github.com/GiovanniGatti/trutheval/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	Oracle     OracleConfig     `yaml:"oracle" mapstructure:"oracle"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Pricing    PricingConfig    `yaml:"pricing" mapstructure:"pricing"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
}

// OracleConfig selects the language-model provider and bounds how hard a
// run may hit it.
type OracleConfig struct {
	Provider    string        `yaml:"provider" mapstructure:"provider"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature *float64      `yaml:"temperature" mapstructure:"temperature"`
	RateLimit   float64       `yaml:"rate_limit" mapstructure:"rate_limit"`
	Retry       RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Circuit     CircuitConfig `yaml:"circuit" mapstructure:"circuit"`
}

// RetryConfig configures backoff for transient provider errors.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// CircuitConfig configures the provider circuit breaker.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// PipelineConfig configures the benchmark steps.
type PipelineConfig struct {
	Keep            float64 `yaml:"keep" mapstructure:"keep"`
	Levels          int     `yaml:"levels" mapstructure:"levels"`
	MaxRetries      int     `yaml:"max_retries" mapstructure:"max_retries"`
	ChunkerAttempts int     `yaml:"chunker_attempts" mapstructure:"chunker_attempts"`
	StopWordsFile   string  `yaml:"stop_words_file" mapstructure:"stop_words_file"`
	Seed            uint64  `yaml:"seed" mapstructure:"seed"`
	Concurrency     int     `yaml:"concurrency" mapstructure:"concurrency"`
}

// StoreConfig configures the run history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the report API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// MonitoringConfig configures run health alerts.
type MonitoringConfig struct {
	Enabled              bool    `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	CostThresholdUSD     float64 `yaml:"cost_threshold_usd" mapstructure:"cost_threshold_usd"`
	MinYield             float64 `yaml:"min_yield" mapstructure:"min_yield"`
}

// PricingConfig overrides per-model token pricing. Models are listed rather
// than keyed because model names contain dots.
type PricingConfig struct {
	Anthropic []ModelPricing `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini    []ModelPricing `yaml:"gemini" mapstructure:"gemini"`
}

// ModelPricing holds per-model token pricing (USD per million tokens).
type ModelPricing struct {
	Model         string  `yaml:"model" mapstructure:"model"`
	Input         float64 `yaml:"input" mapstructure:"input"`
	Output        float64 `yaml:"output" mapstructure:"output"`
	CacheWriteMul float64 `yaml:"cache_write_mul" mapstructure:"cache_write_mul"`
	CacheReadMul  float64 `yaml:"cache_read_mul" mapstructure:"cache_read_mul"`
}

// Rates returns the built-in rates overlaid with the configured ones.
func (p PricingConfig) Rates() cost.Rates {
	rates := cost.DefaultRates()
	overlay := func(dst map[string]cost.ModelRate, src []ModelPricing) {
		for _, m := range src {
			dst[m.Model] = cost.ModelRate{
				Input:         m.Input,
				Output:        m.Output,
				CacheWriteMul: m.CacheWriteMul,
				CacheReadMul:  m.CacheReadMul,
			}
		}
	}
	overlay(rates.Anthropic, p.Anthropic)
	overlay(rates.Gemini, p.Gemini)
	return rates
}

// RetryPolicy converts the retry section into a resilience config.
func (o OracleConfig) RetryPolicy() resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = o.Retry.MaxAttempts
	cfg.InitialBackoff = time.Duration(o.Retry.InitialBackoffMs) * time.Millisecond
	cfg.MaxBackoff = time.Duration(o.Retry.MaxBackoffMs) * time.Millisecond
	return cfg
}

// BreakerPolicy converts the circuit section into a resilience config.
func (o OracleConfig) BreakerPolicy() resilience.BreakerConfig {
	return resilience.BreakerConfig{
		FailureThreshold: o.Circuit.FailureThreshold,
		ResetTimeout:     time.Duration(o.Circuit.ResetTimeoutSecs) * time.Second,
	}
}

// Model returns the model name of the selected provider.
func (c *Config) Model() string {
	if c.Oracle.Provider == string(cost.Gemini) {
		return c.Gemini.Model
	}
	return c.Anthropic.Model
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TRUTHBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, fallbacks := range map[string][]string{
		"anthropic.key":      {"TRUTHBENCH_ANTHROPIC_KEY", "ANTHROPIC_API_KEY"},
		"gemini.key":         {"TRUTHBENCH_GEMINI_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"oracle.temperature": {"TRUTHBENCH_ORACLE_TEMPERATURE"},
	} {
		if err := v.BindEnv(append([]string{key}, fallbacks...)...); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("oracle.provider", string(cost.Anthropic))
	v.SetDefault("oracle.max_tokens", 4096)
	v.SetDefault("oracle.rate_limit", 2.0)
	v.SetDefault("oracle.retry.max_attempts", 3)
	v.SetDefault("oracle.retry.initial_backoff_ms", 500)
	v.SetDefault("oracle.retry.max_backoff_ms", 30000)
	v.SetDefault("oracle.circuit.failure_threshold", 5)
	v.SetDefault("oracle.circuit.reset_timeout_secs", 30)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("pipeline.keep", 0.8)
	v.SetDefault("pipeline.levels", 5)
	v.SetDefault("pipeline.max_retries", 8)
	v.SetDefault("pipeline.chunker_attempts", 3)
	v.SetDefault("pipeline.stop_words_file", "")
	v.SetDefault("pipeline.seed", 0)
	v.SetDefault("pipeline.concurrency", 1)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "truthbench.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.failure_rate_threshold", 0.2)
	v.SetDefault("monitoring.cost_threshold_usd", 0.0)
	v.SetDefault("monitoring.min_yield", 0.0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
