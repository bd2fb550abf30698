package pipeline

import (
	"slices"
	"sync"
)

// Counter names a tally kept during a run.
type Counter string

const (
	InputSamples            Counter = "input_samples"
	FindFactualDataError    Counter = "find_factual_data_error"
	JSONParseRankingError   Counter = "json_parse_ranking_error"
	IndexRankingError       Counter = "index_ranking_error"
	RankingFactualDataError Counter = "ranking_factual_data_error"
	NoiseOutputError        Counter = "noise_output_error"
	OutputSamples           Counter = "output_samples"
)

// knownCounters lists every counter a step may declare.
var knownCounters = []Counter{
	FindFactualDataError,
	JSONParseRankingError,
	IndexRankingError,
	RankingFactualDataError,
	NoiseOutputError,
	OutputSamples,
}

// Incrementer is the write access a step gets to the tracker.
type Incrementer interface {
	Inc(c Counter) error
}

// Tracker is a registry of declared counters. Every counter starts at zero
// and only declared counters may be read or written. It is safe for
// concurrent use.
type Tracker struct {
	mu     sync.Mutex
	counts map[Counter]int
}

// NewTracker declares InputSamples plus the given counters.
func NewTracker(declared ...Counter) *Tracker {
	t := &Tracker{counts: map[Counter]int{InputSamples: 0}}
	for _, c := range declared {
		t.counts[c] = 0
	}
	return t
}

// Inc adds one to c.
func (t *Tracker) Inc(c Counter) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.counts[c]; !ok {
		return &UndeclaredCounterError{Counter: c}
	}
	t.counts[c]++
	return nil
}

// Get returns the value of c.
func (t *Tracker) Get(c Counter) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.counts[c]
	if !ok {
		return 0, &UndeclaredCounterError{Counter: c}
	}
	return v, nil
}

// Declared returns the declared counters in lexical order.
func (t *Tracker) Declared() []Counter {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Counter, 0, len(t.counts))
	for c := range t.counts {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// Snapshot copies the current counts.
func (t *Tracker) Snapshot() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int, len(t.counts))
	for c, v := range t.counts {
		out[string(c)] = v
	}
	return out
}

// Scope returns an Incrementer limited to allowed. Incrementing anything
// else fails even if the tracker itself declares it.
func (t *Tracker) Scope(allowed []Counter) Incrementer {
	set := make(map[Counter]struct{}, len(allowed))
	for _, c := range allowed {
		set[c] = struct{}{}
	}
	return &scoped{tracker: t, allowed: set}
}

type scoped struct {
	tracker *Tracker
	allowed map[Counter]struct{}
}

func (s *scoped) Inc(c Counter) error {
	if _, ok := s.allowed[c]; !ok {
		return &UndeclaredCounterError{Counter: c}
	}
	return s.tracker.Inc(c)
}
