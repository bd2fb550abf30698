package oracle

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/GiovanniGatti/trutheval/internal/cost"
	"github.com/GiovanniGatti/trutheval/pkg/anthropic"
)

// Anthropic is a Completer backed by the Claude Messages API.
type Anthropic struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature *float64
}

// AnthropicOption configures an Anthropic completer.
type AnthropicOption func(*Anthropic)

// WithAnthropicTemperature pins the sampling temperature.
func WithAnthropicTemperature(t float64) AnthropicOption {
	return func(a *Anthropic) { a.temperature = &t }
}

// NewAnthropic creates a completer for model.
func NewAnthropic(client anthropic.Client, model string, maxTokens int64, opts ...AnthropicOption) *Anthropic {
	a := &Anthropic{client: client, model: model, maxTokens: maxTokens}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Complete sends messages as one request. System messages are merged into
// a cached system block.
func (a *Anthropic) Complete(ctx context.Context, messages []Message) (Completion, error) {
	system, turns := split(messages)
	if len(turns) == 0 {
		return Completion{}, eris.New("oracle: anthropic request has no user message")
	}

	req := anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		System:      anthropic.CachedSystem(system),
		Temperature: a.temperature,
	}
	for _, m := range turns {
		req.Messages = append(req.Messages, anthropic.Message{Role: string(m.Role), Content: m.Content})
	}

	resp, err := a.client.CreateMessage(ctx, req)
	if err != nil {
		return Completion{}, err
	}
	return Completion{
		Text: resp.Text(),
		Usage: cost.Usage{
			InputTokens:      resp.Usage.InputTokens,
			OutputTokens:     resp.Usage.OutputTokens,
			CacheWriteTokens: resp.Usage.CacheCreationInputTokens,
			CacheReadTokens:  resp.Usage.CacheReadInputTokens,
		},
	}, nil
}
