package pipeline

import (
	"context"
	"fmt"

	"github.com/GiovanniGatti/trutheval/internal/model"
)

// CompletionCounter counts the records that reached every expected level.
type CompletionCounter struct {
	Declaration
	expected int
}

// NewCompletionCounter creates the counter step. expected is the number of
// answer levels, A0 included, of a complete record.
func NewCompletionCounter(expected int) (*CompletionCounter, error) {
	if expected < 1 {
		return nil, &ConfigurationError{Component: "CompletionCounter", Reason: fmt.Sprintf("expected levels must be at least 1, got %d", expected)}
	}
	return &CompletionCounter{
		Declaration: Declare("CompletionCounter", []model.Field{model.FieldAnswers}, OutputSamples),
		expected:    expected,
	}, nil
}

// Apply increments output_samples when the record has exactly the expected
// number of answers.
func (s *CompletionCounter) Apply(_ context.Context, rec *model.Record, inc Incrementer) error {
	if len(rec.Answers) != s.expected {
		return nil
	}
	return inc.Inc(OutputSamples)
}
