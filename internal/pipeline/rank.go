package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/GiovanniGatti/trutheval/internal/brackets"
	"github.com/GiovanniGatti/trutheval/internal/model"
	"github.com/GiovanniGatti/trutheval/internal/oracle"
)

// rankMarker separates the oracle's reasoning from its ranking.
const rankMarker = "OUTPUT:"

// RankOutcome classifies a candidate ranking.
type RankOutcome int

const (
	RankValid RankOutcome = iota
	// RankParseFailure means the payload is not a JSON array of integers.
	RankParseFailure
	// RankInvalidPermutation means the array is not a permutation of 0..n-1.
	RankInvalidPermutation
)

func (o RankOutcome) String() string {
	switch o {
	case RankValid:
		return "valid"
	case RankParseFailure:
		return "parse_failure"
	case RankInvalidPermutation:
		return "invalid_permutation"
	default:
		return "unknown"
	}
}

// RankResult is the verdict on a ranking payload. Order is set only when
// Outcome is RankValid.
type RankResult struct {
	Outcome RankOutcome
	Order   []int
}

// ValidatePermutation parses payload as a JSON integer array and checks it
// reorders 0..n-1 exactly: n entries, all in range, none repeated.
func ValidatePermutation(payload string, n int) RankResult {
	var order []int
	if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &order); err != nil || order == nil {
		return RankResult{Outcome: RankParseFailure}
	}
	if len(order) != n {
		return RankResult{Outcome: RankInvalidPermutation}
	}
	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return RankResult{Outcome: RankInvalidPermutation}
		}
		seen[idx] = true
	}
	return RankResult{Outcome: RankValid, Order: order}
}

// extractRanking returns the text after the single OUTPUT: marker. A reply
// with no marker or several markers is unusable.
func extractRanking(reply string) (string, bool) {
	parts := strings.Split(reply, rankMarker)
	if len(parts) != 2 {
		return "", false
	}
	return parts[1], true
}

// Rank asks the oracle to order the factual spans by importance.
type Rank struct {
	Declaration
	oracle     oracle.Oracle
	maxRetries int
}

// NewRank creates the rank step. Each record gets up to maxRetries oracle
// calls to produce a valid ranking.
func NewRank(o oracle.Oracle, maxRetries int) (*Rank, error) {
	if maxRetries < 1 {
		return nil, &ConfigurationError{Component: "Rank", Reason: fmt.Sprintf("max retries must be at least 1, got %d", maxRetries)}
	}
	return &Rank{
		Declaration: Declare("Rank",
			[]model.Field{model.FieldWithBrackets, model.FieldRawFactualData},
			JSONParseRankingError, IndexRankingError, RankingFactualDataError,
		),
		oracle:     o,
		maxRetries: maxRetries,
	}, nil
}

// Prompt builds the ranking request for a question and its tagged answer.
func (s *Rank) Prompt(question, tagged string) (string, error) {
	annotated, err := brackets.Annotate(tagged)
	if err != nil {
		return "", err
	}
	return rankPrompt + fmt.Sprintf(rankPromptTail, question, annotated), nil
}

// Apply sets ranked_factual_data to raw_factual_data reordered by the first
// valid ranking. It stays null when there is nothing to rank or every
// attempt fails.
func (s *Rank) Apply(ctx context.Context, rec *model.Record, inc Incrementer) error {
	tagged, ok := rec.WithBrackets[model.BaseLevel]
	n := len(rec.RawFactualData)
	if !ok || n == 0 {
		zap.L().Debug("rank: no factual spans, skipping")
		rec.SetRankedFactualData(nil)
		return nil
	}

	prompt, err := s.Prompt(rec.Question, tagged)
	if err != nil {
		return eris.Wrap(err, "rank: annotate spans")
	}
	messages := []oracle.Message{oracle.UserMessage(prompt)}

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		reply, err := s.oracle.Query(ctx, messages)
		if err != nil {
			return eris.Wrap(err, "rank: query oracle")
		}

		payload, ok := extractRanking(reply)
		if !ok {
			zap.L().Debug("rank: reply without a single output marker", zap.Int("attempt", attempt))
			continue
		}

		res := ValidatePermutation(payload, n)
		switch res.Outcome {
		case RankParseFailure:
			if err := inc.Inc(JSONParseRankingError); err != nil {
				return err
			}
		case RankInvalidPermutation:
			if err := inc.Inc(IndexRankingError); err != nil {
				return err
			}
		case RankValid:
			ranked := make([]string, n)
			for k, idx := range res.Order {
				ranked[k] = rec.RawFactualData[idx]
			}
			rec.SetRankedFactualData(ranked)
			return nil
		}
		zap.L().Debug("rank: rejected ranking",
			zap.Int("attempt", attempt),
			zap.Stringer("outcome", res.Outcome),
		)
	}

	zap.L().Warn("rank: retries exhausted",
		zap.Int("max_retries", s.maxRetries),
		zap.String("counter", string(RankingFactualDataError)),
	)
	rec.SetRankedFactualData(nil)
	return inc.Inc(RankingFactualDataError)
}
