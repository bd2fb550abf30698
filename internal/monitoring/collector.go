package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/GiovanniGatti/trutheval/internal/model"
	"github.com/GiovanniGatti/trutheval/internal/store"
)

// MetricsSnapshot holds a point-in-time view of benchmark run health.
type MetricsSnapshot struct {
	// Run metrics (within lookback window).
	RunsTotal    int     `json:"runs_total"`
	RunsComplete int     `json:"runs_complete"`
	RunsFailed   int     `json:"runs_failed"`
	RunsRunning  int     `json:"runs_running"`
	FailRate     float64 `json:"fail_rate"`
	CostUSD      float64 `json:"cost_usd"`

	// Record metrics over complete runs.
	Records int     `json:"records"`
	Valid   int     `json:"valid"`
	Yield   float64 `json:"yield"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// RunLister is the part of store.Store the collector reads.
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error)
}

// Collector gathers metrics from the run store.
type Collector struct {
	store RunLister
}

// NewCollector creates a new metrics collector.
func NewCollector(st RunLister) *Collector {
	return &Collector{store: st}
}

// maxRunsPerWindow bounds how many runs one snapshot inspects.
const maxRunsPerWindow = 10000

// Collect gathers a snapshot of run metrics over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	now := time.Now().UTC()
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}

	runs, err := c.store.ListRuns(ctx, store.RunFilter{
		CreatedAfter: now.Add(-time.Duration(lookbackHours) * time.Hour),
		Limit:        maxRunsPerWindow,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	snap.RunsTotal = len(runs)
	for _, r := range runs {
		snap.CostUSD += r.CostUSD
		switch r.Status {
		case model.RunStatusComplete:
			snap.RunsComplete++
			snap.Records += r.Records
			snap.Valid += r.Valid
		case model.RunStatusFailed:
			snap.RunsFailed++
		default:
			snap.RunsRunning++
		}
	}

	if finished := snap.RunsComplete + snap.RunsFailed; finished > 0 {
		snap.FailRate = float64(snap.RunsFailed) / float64(finished)
	}
	if snap.Records > 0 {
		snap.Yield = float64(snap.Valid) / float64(snap.Records)
	}
	return snap, nil
}
