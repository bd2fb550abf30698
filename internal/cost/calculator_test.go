package cost

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRates() Rates {
	return Rates{
		Anthropic: map[string]ModelRate{
			"sonnet": {
				Input: 3.00, Output: 15.00,
				CacheWriteMul: 1.25, CacheReadMul: 0.1,
			},
		},
		Gemini: map[string]ModelRate{
			"flash": {Input: 0.30, Output: 2.50, CacheReadMul: 0.25},
		},
	}
}

func TestPrice(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	tests := []struct {
		name     string
		provider Provider
		model    string
		usage    Usage
		want     float64
	}{
		{
			name:     "anthropic input and output",
			provider: Anthropic, model: "sonnet",
			usage: Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000},
			want:  18.00,
		},
		{
			name:     "anthropic cache write and read",
			provider: Anthropic, model: "sonnet",
			usage: Usage{CacheWriteTokens: 1_000_000, CacheReadTokens: 1_000_000},
			want:  3.00*1.25 + 3.00*0.1,
		},
		{
			name:     "gemini",
			provider: Gemini, model: "flash",
			usage: Usage{InputTokens: 2_000_000, OutputTokens: 1_000_000},
			want:  0.60 + 2.50,
		},
		{
			name:     "unknown model",
			provider: Anthropic, model: "nope",
			usage: Usage{InputTokens: 1_000_000},
			want:  0,
		},
		{
			name:     "unknown provider",
			provider: "openai", model: "sonnet",
			usage: Usage{InputTokens: 1_000_000},
			want:  0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, calc.Price(tt.provider, tt.model, tt.usage), 1e-9)
		})
	}
}

func TestDefaultRates_CoverDefaultModels(t *testing.T) {
	t.Parallel()
	rates := DefaultRates()
	assert.Contains(t, rates.Anthropic, "claude-sonnet-4-5-20250929")
	assert.Contains(t, rates.Gemini, "gemini-2.5-flash")
}

func TestLedger(t *testing.T) {
	t.Parallel()
	l := NewLedger(NewCalculator(testRates()), Anthropic, "sonnet")

	l.Record("rank", Usage{InputTokens: 1_000_000})
	l.Record("rank", Usage{OutputTokens: 1_000_000})
	l.Record("noise", Usage{InputTokens: 500_000})

	entries := l.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "noise", entries[0].Step)
	assert.Equal(t, 1, entries[0].Calls)
	assert.InDelta(t, 1.50, entries[0].CostUSD, 1e-9)
	assert.Equal(t, "rank", entries[1].Step)
	assert.Equal(t, 2, entries[1].Calls)
	assert.Equal(t, Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000}, entries[1].Usage)
	assert.InDelta(t, 19.50, l.Total(), 1e-9)

	assert.NotPanics(t, l.Log)
}

func TestLedger_Concurrent(t *testing.T) {
	t.Parallel()
	l := NewLedger(NewCalculator(testRates()), Gemini, "flash")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Record("paraphrase", Usage{InputTokens: 10, OutputTokens: 5})
		}()
	}
	wg.Wait()

	entries := l.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 50, entries[0].Calls)
	assert.Equal(t, int64(500), entries[0].Usage.InputTokens)
}
