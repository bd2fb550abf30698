package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/GiovanniGatti/trutheval/internal/brackets"
	"github.com/GiovanniGatti/trutheval/internal/chunker"
	"github.com/GiovanniGatti/trutheval/internal/model"
)

// FactualSpans tags the candidate facts of the A0 answer and extracts them
// in order of appearance.
type FactualSpans struct {
	Declaration
	chunker chunker.Chunker
}

// NewFactualSpans creates the factual-span step.
func NewFactualSpans(c chunker.Chunker) *FactualSpans {
	return &FactualSpans{
		Declaration: Declare("FactualSpans", []model.Field{model.FieldAnswers}, FindFactualDataError),
		chunker:     c,
	}
}

// Apply sets with_brackets to {A0: tagged} and raw_factual_data to the
// tagged spans. Without an A0 answer both are null. An A0 answer that
// already carries markers, or that the chunker could not tag within its
// contract, leaves both null and counts find_factual_data_error, as does a
// tagging with no spans. Chunker transport errors and malformed text from a
// chunker that skips validation abort the run.
func (s *FactualSpans) Apply(ctx context.Context, rec *model.Record, inc Incrementer) error {
	a0, ok := rec.Answers[model.BaseLevel]
	if !ok {
		zap.L().Debug("factual: no base answer, skipping")
		rec.SetWithBrackets(nil)
		rec.SetRawFactualData(nil)
		return nil
	}

	if brackets.HasMarkers(a0) {
		zap.L().Warn("factual: base answer contains span markers",
			zap.String("answer", a0),
			zap.String("counter", string(FindFactualDataError)),
		)
		return s.untagged(rec, inc)
	}

	tagged, err := s.chunker.Tag(ctx, a0)
	if chunker.IsRejected(err) {
		zap.L().Warn("factual: chunker could not tag answer",
			zap.String("counter", string(FindFactualDataError)),
			zap.Error(err),
		)
		return s.untagged(rec, inc)
	}
	if err != nil {
		return eris.Wrap(err, "factual: tag answer")
	}
	spans, err := brackets.Spans(tagged)
	if err != nil {
		return eris.Wrapf(err, "factual: chunker returned malformed text %q", tagged)
	}

	rec.SetWithBrackets(model.Levels{model.BaseLevel: tagged})
	if len(spans) == 0 {
		zap.L().Warn("factual: no factual spans found", zap.String("counter", string(FindFactualDataError)))
		rec.SetRawFactualData(nil)
		return inc.Inc(FindFactualDataError)
	}
	rec.SetRawFactualData(spans)
	return nil
}

func (s *FactualSpans) untagged(rec *model.Record, inc Incrementer) error {
	rec.SetWithBrackets(nil)
	rec.SetRawFactualData(nil)
	return inc.Inc(FindFactualDataError)
}
