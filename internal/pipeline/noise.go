package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/GiovanniGatti/trutheval/internal/brackets"
	"github.com/GiovanniGatti/trutheval/internal/model"
	"github.com/GiovanniGatti/trutheval/internal/oracle"
)

var (
	thinkingRe = regexp.MustCompile(`(?s)<thinking>(.*?)</thinking>`)
	outputRe   = regexp.MustCompile(`(?s)<output>(.*?)</output>`)
)

// SplitGroups partitions the indices 0..numTerms-1 into numGroups groups.
// Indices are taken in descending order in batches of numGroups; even
// batches are dealt to groups 0..numGroups-1 and odd batches in reverse, so
// every group gets a mix of low and high indices. Groups may be empty.
func SplitGroups(numTerms, numGroups int) [][]int {
	groups := make([][]int, numGroups)
	for g := range groups {
		groups[g] = []int{}
	}
	if numGroups <= 0 {
		return groups
	}
	for batch, start := 0, 0; start < numTerms; batch, start = batch+1, start+numGroups {
		for slot := 0; slot < numGroups && start+slot < numTerms; slot++ {
			idx := numTerms - 1 - (start + slot)
			g := slot
			if batch%2 == 1 {
				g = numGroups - 1 - slot
			}
			groups[g] = append(groups[g], idx)
		}
	}
	return groups
}

// parseNoiseResponse extracts the trimmed <thinking> and <output> blocks.
// ok is false when there is no non-empty output block.
func parseNoiseResponse(reply string) (thinking, output string, ok bool) {
	if m := thinkingRe.FindStringSubmatch(reply); m != nil {
		thinking = strings.TrimSpace(m[1])
	}
	if m := outputRe.FindStringSubmatch(reply); m != nil {
		output = strings.TrimSpace(m[1])
	}
	return thinking, output, output != ""
}

// Noise produces corruption levels A1..An, each corrupting one more group
// of facts on top of the previous level.
type Noise struct {
	Declaration
	oracle oracle.Oracle
	levels int

	// seed, when set, derives a shuffle source per record from the record
	// index so the level assignment does not depend on scheduling.
	seed uint64

	mu  sync.Mutex
	rng *rand.Rand
}

// NoiseOption configures a Noise step.
type NoiseOption func(*Noise)

// WithRand sets a single source shared by every record to shuffle groups
// across levels.
func WithRand(r *rand.Rand) NoiseOption {
	return func(n *Noise) {
		n.rng = r
		n.seed = 0
	}
}

// WithSeed seeds the group shuffle. Each record shuffles with a source
// derived from the seed and its index in the run, so results repeat for any
// concurrency. Zero keeps the time-based shared source.
func WithSeed(seed uint64) NoiseOption {
	return func(n *Noise) { n.seed = seed }
}

// NewNoise creates the noise step. levels is the number of corruption
// rounds and must be at least 2.
func NewNoise(o oracle.Oracle, levels int, opts ...NoiseOption) (*Noise, error) {
	if levels < 2 {
		return nil, &ConfigurationError{Component: "Noise", Reason: fmt.Sprintf("number of noise levels must be at least 2, got %d", levels)}
	}
	seed := uint64(time.Now().UnixNano())
	n := &Noise{
		Declaration: Declare("Noise",
			[]model.Field{model.FieldFactualData, model.FieldWithBrackets, model.FieldAnswers},
			NoiseOutputError,
		),
		oracle: o,
		levels: levels,
		rng:    rand.New(rand.NewPCG(seed, seed>>1)),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Levels returns the number of corruption rounds.
func (s *Noise) Levels() int { return s.levels }

func (s *Noise) shuffle(ctx context.Context, groups [][]int) {
	swap := func(i, j int) { groups[i], groups[j] = groups[j], groups[i] }
	if s.seed != 0 {
		idx, _ := RecordIndex(ctx)
		rand.New(rand.NewPCG(s.seed, uint64(idx))).Shuffle(len(groups), swap)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(len(groups), swap)
}

// Apply runs one oracle round per level. Each round marks the current
// group's facts as [term] and every other span as {{term}}. A round without
// an output block counts noise_output_error and leaves a gap: the next
// round starts from the last successful text.
func (s *Noise) Apply(ctx context.Context, rec *model.Record, inc Incrementer) error {
	if rec.Thinking == nil {
		rec.SetThinking(model.Levels{})
	}

	base, hasBase := rec.WithBrackets[model.BaseLevel]
	if len(rec.FactualData) == 0 || !hasBase || !rec.Answers.Has(model.BaseLevel) {
		zap.L().Debug("noise: record not ranked, skipping")
		return nil
	}

	groups := SplitGroups(len(rec.FactualData), s.levels)
	s.shuffle(ctx, groups)

	running := base
	for i, group := range groups {
		level := model.LevelName(i + 1)

		allowed := make([]string, len(group))
		for k, idx := range group {
			allowed[k] = rec.FactualData[idx]
		}
		input, err := brackets.Protect(running, allowed)
		if err != nil {
			return eris.Wrapf(err, "noise: protect spans for %s", level)
		}

		reply, err := s.oracle.Query(ctx, []oracle.Message{
			{Role: oracle.System, Content: noisePrompt},
			oracle.UserMessage("```\n" + input + "\n```"),
		})
		if err != nil {
			return eris.Wrapf(err, "noise: query oracle for %s", level)
		}

		thinking, output, ok := parseNoiseResponse(reply)
		if thinking != "" {
			rec.Thinking[level] = thinking
		}
		if !ok {
			zap.L().Warn("noise: reply without output block",
				zap.String("level", level),
				zap.String("counter", string(NoiseOutputError)),
			)
			if err := inc.Inc(NoiseOutputError); err != nil {
				return err
			}
			continue
		}

		restored, err := brackets.Restore(output)
		if err != nil {
			zap.L().Warn("noise: malformed markers in output",
				zap.String("level", level),
				zap.Error(err),
			)
			if err := inc.Inc(NoiseOutputError); err != nil {
				return err
			}
			continue
		}
		plain, err := brackets.Strip(restored)
		if err != nil {
			return eris.Wrapf(err, "noise: strip markers for %s", level)
		}

		rec.WithBrackets[level] = restored
		rec.Answers[level] = plain
		running = restored
	}
	return nil
}
