// Package pipeline turns question/answer pairs into graded corruption
// benchmarks by running every record through a fixed sequence of steps.
package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GiovanniGatti/trutheval/internal/model"
)

// Reader supplies the records of a run.
type Reader interface {
	Samples(ctx context.Context) ([]*model.Record, error)
}

// Pipeline applies its steps, in order, to every record of a reader.
type Pipeline struct {
	steps       []Step
	concurrency int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConcurrency processes up to n records at once. Steps still run in
// order within a record and the output keeps the input order.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) { p.concurrency = n }
}

// New creates a Pipeline. Field dependencies between steps are not checked
// here; a miswired pipeline fails on the first record.
func New(steps []Step, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{steps: steps, concurrency: 1}
	for _, opt := range opts {
		opt(p)
	}
	if p.concurrency < 1 {
		return nil, &ConfigurationError{Component: "pipeline", Reason: "concurrency must be at least 1"}
	}
	if err := checkCounters(steps); err != nil {
		return nil, err
	}
	return p, nil
}

// checkCounters rejects steps declaring a counter outside the known set,
// the pipeline-owned input_samples, or a counter another step owns.
func checkCounters(steps []Step) error {
	owner := map[Counter]string{}
	for _, s := range steps {
		for _, c := range s.Counters() {
			if c == InputSamples || !slices.Contains(knownCounters, c) {
				return &ConfigurationError{Component: s.Name(), Reason: fmt.Sprintf("cannot declare counter %q", c)}
			}
			if prev, ok := owner[c]; ok && prev != s.Name() {
				return &ConfigurationError{Component: s.Name(), Reason: fmt.Sprintf("counter %q is already declared by %s", c, prev)}
			}
			owner[c] = s.Name()
		}
	}
	return nil
}

type recordIndexKey struct{}

// RecordIndex returns the position in the run of the record being
// processed, when ctx comes from a running pipeline.
func RecordIndex(ctx context.Context) (int, bool) {
	idx, ok := ctx.Value(recordIndexKey{}).(int)
	return idx, ok
}

// Steps returns the names of the configured steps in order.
func (p *Pipeline) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name()
	}
	return names
}

// NewTracker returns a tracker declaring every counter of every step.
func (p *Pipeline) NewTracker() *Tracker {
	var declared []Counter
	for _, s := range p.steps {
		declared = append(declared, s.Counters()...)
	}
	return NewTracker(declared...)
}

// Run loads every record from r and processes them. On success it returns
// the records in input order and the final counters. Validation and
// configuration failures are returned as their typed errors; any other
// step failure aborts the run wrapped with the step and record index.
func (p *Pipeline) Run(ctx context.Context, r Reader) ([]*model.Record, *Tracker, error) {
	records, err := r.Samples(ctx)
	if err != nil {
		return nil, nil, eris.Wrap(err, "pipeline: read samples")
	}

	tracker := p.NewTracker()
	scopes := make([]Incrementer, len(p.steps))
	for i, s := range p.steps {
		scopes[i] = tracker.Scope(s.Counters())
	}

	log := zap.L().With(zap.Int("records", len(records)), zap.Int("concurrency", p.concurrency))
	log.Info("pipeline: starting run", zap.Strings("steps", p.Steps()))
	start := time.Now()

	if p.concurrency == 1 {
		for i, rec := range records {
			if err := p.process(ctx, i, rec, tracker, scopes); err != nil {
				return nil, nil, err
			}
		}
	} else {
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(p.concurrency)
		for i, rec := range records {
			g.Go(func() error {
				return p.process(gCtx, i, rec, tracker, scopes)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}
	}

	log.Info("pipeline: run complete",
		zap.Duration("elapsed", time.Since(start)),
		zap.Any("counters", tracker.Snapshot()),
	)
	return records, tracker, nil
}

func (p *Pipeline) process(ctx context.Context, idx int, rec *model.Record, tracker *Tracker, scopes []Incrementer) error {
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "pipeline: run cancelled")
	}
	if err := tracker.Inc(InputSamples); err != nil {
		return err
	}
	ctx = context.WithValue(ctx, recordIndexKey{}, idx)
	for i, s := range p.steps {
		if err := s.Validate(rec); err != nil {
			return err
		}
		if err := s.Apply(ctx, rec, scopes[i]); err != nil {
			if isFatal(err) {
				return err
			}
			return eris.Wrapf(err, "pipeline: step %s on record %d", s.Name(), idx)
		}
	}
	zap.L().Debug("pipeline: record processed",
		zap.Int("record", idx),
		zap.Int("levels", len(rec.Answers)),
	)
	return nil
}
