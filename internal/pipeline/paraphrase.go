package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/GiovanniGatti/trutheval/internal/model"
	"github.com/GiovanniGatti/trutheval/internal/oracle"
)

// Paraphrase rewords the ground truth into the A0 answer every corruption
// level starts from.
type Paraphrase struct {
	Declaration
	oracle oracle.Oracle
}

// NewParaphrase creates the paraphrase step.
func NewParaphrase(o oracle.Oracle) *Paraphrase {
	return &Paraphrase{
		Declaration: Declare("Paraphrase", []model.Field{model.FieldGroundTruth}),
		oracle:      o,
	}
}

// Apply sets answers to {A0: paraphrase}, or to null when there is no
// ground truth to paraphrase.
func (s *Paraphrase) Apply(ctx context.Context, rec *model.Record, _ Incrementer) error {
	if strings.TrimSpace(rec.GroundTruth) == "" {
		zap.L().Debug("paraphrase: empty ground truth, skipping")
		rec.SetAnswers(nil)
		return nil
	}

	prompt := fmt.Sprintf(paraphrasePrompt, rec.GroundTruth)
	out, err := s.oracle.Query(ctx, []oracle.Message{oracle.UserMessage(prompt)})
	if err != nil {
		return eris.Wrap(err, "paraphrase: query oracle")
	}

	out = strings.TrimSpace(out)
	if out == "" {
		zap.L().Warn("paraphrase: oracle returned an empty paraphrase")
		rec.SetAnswers(nil)
		return nil
	}
	rec.SetAnswers(model.Levels{model.BaseLevel: out})
	return nil
}
