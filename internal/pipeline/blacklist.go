package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/GiovanniGatti/trutheval/internal/model"
	"github.com/GiovanniGatti/trutheval/internal/textutil"
)

// Blacklist excludes spans that share a word with the question, since
// corrupting them would make the corruption obvious from the question.
type Blacklist struct {
	Declaration
	stopWords map[string]struct{}
}

// NewBlacklist creates the blacklist step. Stop words are compared
// lowercased and are never treated as shared words.
func NewBlacklist(stopWords []string) *Blacklist {
	return &Blacklist{
		Declaration: Declare("Blacklist", []model.Field{model.FieldQuestion, model.FieldRawFactualData}),
		stopWords:   textutil.LowerSet(stopWords),
	}
}

// Apply sets blacklisted to the lowercased spans having a whitespace token
// found among the question's non-stop words. It is null when the question
// or the spans are empty.
func (s *Blacklist) Apply(_ context.Context, rec *model.Record, _ Incrementer) error {
	if rec.Question == "" || len(rec.RawFactualData) == 0 {
		zap.L().Debug("blacklist: nothing to compare, skipping",
			zap.Bool("empty_question", rec.Question == ""),
		)
		rec.SetBlacklisted(nil)
		return nil
	}

	questionWords := textutil.WordSet(rec.Question)
	for w := range s.stopWords {
		delete(questionWords, w)
	}

	out := []string{}
	for _, span := range rec.RawFactualData {
		for _, tok := range textutil.Tokens(span) {
			if _, ok := questionWords[textutil.Lower(tok)]; ok {
				out = append(out, textutil.Lower(span))
				break
			}
		}
	}
	rec.SetBlacklisted(out)
	return nil
}
