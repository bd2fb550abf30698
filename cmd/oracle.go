package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/GiovanniGatti/trutheval/internal/chunker"
	"github.com/GiovanniGatti/trutheval/internal/config"
	"github.com/GiovanniGatti/trutheval/internal/cost"
	"github.com/GiovanniGatti/trutheval/internal/oracle"
	"github.com/GiovanniGatti/trutheval/internal/pipeline"
	anthropicpkg "github.com/GiovanniGatti/trutheval/pkg/anthropic"
)

// newCompleter builds the configured provider adapter wrapped with rate
// limiting, retries and a circuit breaker.
func newCompleter(ctx context.Context, c *config.Config) (oracle.Completer, error) {
	var base oracle.Completer

	switch cost.Provider(c.Oracle.Provider) {
	case cost.Anthropic:
		var opts []oracle.AnthropicOption
		if c.Oracle.Temperature != nil {
			opts = append(opts, oracle.WithAnthropicTemperature(*c.Oracle.Temperature))
		}
		client := anthropicpkg.NewClient(c.Anthropic.Key)
		base = oracle.NewAnthropic(client, c.Anthropic.Model, int64(c.Oracle.MaxTokens), opts...)
	case cost.Gemini:
		var opts []oracle.GeminiOption
		if c.Oracle.Temperature != nil {
			opts = append(opts, oracle.WithGeminiTemperature(float32(*c.Oracle.Temperature)))
		}
		client, err := oracle.NewGeminiClient(ctx, c.Gemini.Key)
		if err != nil {
			return nil, err
		}
		base = oracle.NewGemini(client.Models, c.Gemini.Model, int32(c.Oracle.MaxTokens), opts...)
	default:
		return nil, eris.Errorf("unsupported oracle provider: %s", c.Oracle.Provider)
	}

	return oracle.Guard(c.Oracle.Provider, base, oracle.GuardConfig{
		RateLimit: c.Oracle.RateLimit,
		Retry:     c.Oracle.RetryPolicy(),
		Breaker:   c.Oracle.BreakerPolicy(),
	}), nil
}

// buildSteps assembles the benchmark steps in execution order. Every oracle
// call is attributed to its step in ledger.
func buildSteps(c oracle.Completer, ledger *cost.Ledger, p config.PipelineConfig, stopWords []string) ([]pipeline.Step, error) {
	meter := func(step string) oracle.Oracle {
		return oracle.Metered(c, ledger, step)
	}

	tagger, err := chunker.NewOracleChunker(meter("FactualSpans"), p.ChunkerAttempts)
	if err != nil {
		return nil, err
	}
	rank, err := pipeline.NewRank(meter("Rank"), p.MaxRetries)
	if err != nil {
		return nil, err
	}
	filter, err := pipeline.NewFilter(p.Keep)
	if err != nil {
		return nil, err
	}
	noise, err := pipeline.NewNoise(meter("Noise"), p.Levels, pipeline.WithSeed(p.Seed))
	if err != nil {
		return nil, err
	}
	counter, err := pipeline.NewCompletionCounter(p.Levels + 1)
	if err != nil {
		return nil, err
	}

	return []pipeline.Step{
		pipeline.NewParaphrase(meter("Paraphrase")),
		pipeline.NewFactualSpans(tagger),
		pipeline.NewBlacklist(stopWords),
		rank,
		filter,
		noise,
		counter,
	}, nil
}
