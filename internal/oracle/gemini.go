package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/GiovanniGatti/trutheval/internal/cost"
	"github.com/GiovanniGatti/trutheval/internal/resilience"
)

// ContentGenerator is the subset of *genai.Models used by Gemini.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini is a Completer backed by the Gemini API.
type Gemini struct {
	models      ContentGenerator
	model       string
	maxTokens   int32
	temperature *float32
}

// GeminiOption configures a Gemini completer.
type GeminiOption func(*Gemini)

// WithGeminiTemperature pins the sampling temperature.
func WithGeminiTemperature(t float32) GeminiOption {
	return func(g *Gemini) { g.temperature = &t }
}

// NewGeminiClient dials the Gemini API with apiKey.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, eris.New("oracle: gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, eris.Wrap(err, "oracle: create gemini client")
	}
	return client, nil
}

// NewGemini creates a completer for model. Pass client.Models as models.
func NewGemini(models ContentGenerator, model string, maxTokens int32, opts ...GeminiOption) *Gemini {
	g := &Gemini{models: models, model: model, maxTokens: maxTokens}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Complete sends messages as one request. System messages become the system
// instruction; assistant turns are sent with the model role.
func (g *Gemini) Complete(ctx context.Context, messages []Message) (Completion, error) {
	system, turns := split(messages)
	if len(turns) == 0 {
		return Completion{}, eris.New("oracle: gemini request has no user message")
	}

	contents := make([]*genai.Content, 0, len(turns))
	for _, m := range turns {
		role := genai.Role(genai.RoleUser)
		if m.Role == Assistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: g.maxTokens,
		Temperature:     g.temperature,
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return Completion{}, classifyGemini(err)
	}

	out := Completion{Text: resp.Text()}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = cost.Usage{
			InputTokens:     int64(u.PromptTokenCount - u.CachedContentTokenCount),
			OutputTokens:    int64(u.CandidatesTokenCount),
			CacheReadTokens: int64(u.CachedContentTokenCount),
		}
	}
	return out, nil
}

func classifyGemini(err error) error {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}
	if resilience.IsTransientHTTPStatus(code) {
		return resilience.NewTransientError(
			eris.Wrap(err, fmt.Sprintf("gemini: generate content (status %d)", code)),
			code,
		)
	}
	return eris.Wrap(err, "gemini: generate content")
}
