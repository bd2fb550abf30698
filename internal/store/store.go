// Package store persists benchmark runs and their processed records.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/GiovanniGatti/trutheval/internal/model"
)

// ErrNotFound is returned when a run ID is unknown.
var ErrNotFound = eris.New("store: run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status       model.RunStatus `json:"status,omitempty"`
	CreatedAfter time.Time       `json:"created_after,omitempty"`
	Limit        int             `json:"limit,omitempty"`
	Offset       int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for benchmark runs.
type Store interface {
	CreateRun(ctx context.Context, meta model.RunMeta) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, report *model.Report, costUSD float64) error
	FailRun(ctx context.Context, runID string, msg string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)
	GetReport(ctx context.Context, runID string) (*model.Report, error)

	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100

func limitOf(f RunFilter) int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

// recordRow is the persisted form of one processed record.
type recordRow struct {
	Index    int
	Question string
	Valid    bool
	JSON     []byte
}

func encodeRecords(report *model.Report) ([]recordRow, int, error) {
	rows := make([]recordRow, 0, len(report.Questions))
	valid := 0
	for i, rec := range report.Questions {
		if rec == nil {
			continue
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, 0, eris.Wrapf(err, "store: marshal record %d", i)
		}
		ok := rec.IsValid()
		if ok {
			valid++
		}
		rows = append(rows, recordRow{Index: i, Question: rec.Question, Valid: ok, JSON: data})
	}
	return rows, valid, nil
}

func decodeRecord(data []byte) (*model.Record, error) {
	var rec model.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal record")
	}
	return &rec, nil
}

func decodeCounters(data []byte) (map[string]int, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var counters map[string]int
	if err := json.Unmarshal(data, &counters); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal counters")
	}
	return counters, nil
}
