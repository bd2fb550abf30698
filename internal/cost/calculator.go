// Package cost prices language-model token usage and accumulates the spend
// of a benchmark run.
package cost

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Provider names a language-model vendor.
type Provider string

const (
	Anthropic Provider = "anthropic"
	Gemini    Provider = "gemini"
)

// Rates holds per-provider pricing configuration.
type Rates struct {
	Anthropic map[string]ModelRate `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini    map[string]ModelRate `yaml:"gemini" mapstructure:"gemini"`
}

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input         float64 `yaml:"input" mapstructure:"input"`
	Output        float64 `yaml:"output" mapstructure:"output"`
	CacheWriteMul float64 `yaml:"cache_write_mul" mapstructure:"cache_write_mul"`
	CacheReadMul  float64 `yaml:"cache_read_mul" mapstructure:"cache_read_mul"`
}

// Usage is the token consumption of one or more calls.
type Usage struct {
	InputTokens      int64 `json:"input_tokens"`
	OutputTokens     int64 `json:"output_tokens"`
	CacheWriteTokens int64 `json:"cache_write_tokens"`
	CacheReadTokens  int64 `json:"cache_read_tokens"`
}

// Add returns the element-wise sum of u and o.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		InputTokens:      u.InputTokens + o.InputTokens,
		OutputTokens:     u.OutputTokens + o.OutputTokens,
		CacheWriteTokens: u.CacheWriteTokens + o.CacheWriteTokens,
		CacheReadTokens:  u.CacheReadTokens + o.CacheReadTokens,
	}
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Price returns the USD cost of usage on the given model. Unknown providers
// and models cost zero.
func (c *Calculator) Price(provider Provider, model string, u Usage) float64 {
	var table map[string]ModelRate
	switch provider {
	case Anthropic:
		table = c.rates.Anthropic
	case Gemini:
		table = c.rates.Gemini
	}
	rate, ok := table[model]
	if !ok {
		return 0
	}

	inCost := (float64(u.InputTokens) / 1e6) * rate.Input
	outCost := (float64(u.OutputTokens) / 1e6) * rate.Output
	cwCost := (float64(u.CacheWriteTokens) / 1e6) * rate.Input * rate.CacheWriteMul
	crCost := (float64(u.CacheReadTokens) / 1e6) * rate.Input * rate.CacheReadMul
	return inCost + outCost + cwCost + crCost
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Anthropic: map[string]ModelRate{
			"claude-haiku-4-5-20251001": {
				Input: 0.80, Output: 4.00,
				CacheWriteMul: 1.25, CacheReadMul: 0.1,
			},
			"claude-sonnet-4-5-20250929": {
				Input: 3.00, Output: 15.00,
				CacheWriteMul: 1.25, CacheReadMul: 0.1,
			},
			"claude-opus-4-6": {
				Input: 15.00, Output: 75.00,
				CacheWriteMul: 1.25, CacheReadMul: 0.1,
			},
		},
		Gemini: map[string]ModelRate{
			"gemini-2.5-flash": {
				Input: 0.30, Output: 2.50,
				CacheReadMul: 0.25,
			},
			"gemini-2.5-pro": {
				Input: 1.25, Output: 10.00,
				CacheReadMul: 0.25,
			},
		},
	}
}

// Ledger accumulates usage and spend per pipeline step. It is safe for
// concurrent use.
type Ledger struct {
	calc     *Calculator
	provider Provider
	model    string

	mu    sync.Mutex
	steps map[string]*Entry
}

// Entry is the accumulated spend of one step.
type Entry struct {
	Step    string  `json:"step"`
	Calls   int     `json:"calls"`
	Usage   Usage   `json:"usage"`
	CostUSD float64 `json:"cost_usd"`
}

// NewLedger creates an empty ledger pricing calls on provider/model.
func NewLedger(calc *Calculator, provider Provider, model string) *Ledger {
	return &Ledger{
		calc:     calc,
		provider: provider,
		model:    model,
		steps:    make(map[string]*Entry),
	}
}

// Record adds the usage of one call made on behalf of step.
func (l *Ledger) Record(step string, u Usage) {
	price := l.calc.Price(l.provider, l.model, u)

	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.steps[step]
	if !ok {
		e = &Entry{Step: step}
		l.steps[step] = e
	}
	e.Calls++
	e.Usage = e.Usage.Add(u)
	e.CostUSD += price
}

// Entries returns the per-step totals sorted by step name.
func (l *Ledger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, 0, len(l.steps))
	for _, e := range l.steps {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Step < out[j].Step })
	return out
}

// Total returns the spend across all steps.
func (l *Ledger) Total() float64 {
	var total float64
	for _, e := range l.Entries() {
		total += e.CostUSD
	}
	return total
}

// Log writes one line per step plus the run total.
func (l *Ledger) Log() {
	for _, e := range l.Entries() {
		zap.L().Info("cost attribution",
			zap.String("provider", string(l.provider)),
			zap.String("model", l.model),
			zap.String("step", e.Step),
			zap.Int("calls", e.Calls),
			zap.Int64("input_tokens", e.Usage.InputTokens),
			zap.Int64("output_tokens", e.Usage.OutputTokens),
			zap.Int64("cache_write_tokens", e.Usage.CacheWriteTokens),
			zap.Int64("cache_read_tokens", e.Usage.CacheReadTokens),
			zap.Float64("estimated_cost_usd", e.CostUSD),
		)
	}
	zap.L().Info("run cost", zap.Float64("total_usd", l.Total()))
}
