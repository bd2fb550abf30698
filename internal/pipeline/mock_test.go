package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/GiovanniGatti/trutheval/internal/model"
	"github.com/GiovanniGatti/trutheval/internal/oracle"
)

// --- Oracle Mock ---

type mockOracle struct {
	mock.Mock
}

func (m *mockOracle) Query(ctx context.Context, messages []oracle.Message) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

// --- Chunker Mock ---

type mockChunker struct {
	mock.Mock
}

func (m *mockChunker) Tag(ctx context.Context, sentence string) (string, error) {
	args := m.Called(ctx, sentence)
	return args.String(0), args.Error(1)
}

// --- Reader ---

type sliceReader struct {
	records []*model.Record
	err     error
}

func (r *sliceReader) Samples(context.Context) ([]*model.Record, error) {
	return r.records, r.err
}

// --- Tracker helpers ---

// fullTracker declares every counter a step may touch.
func fullTracker() *Tracker {
	return NewTracker(
		FindFactualDataError,
		JSONParseRankingError,
		IndexRankingError,
		RankingFactualDataError,
		NoiseOutputError,
		OutputSamples,
	)
}

func mustGet(t *Tracker, c Counter) int {
	v, err := t.Get(c)
	if err != nil {
		panic(err)
	}
	return v
}
