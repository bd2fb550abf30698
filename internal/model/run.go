package model

import "time"

// RunStatus represents the current state of a benchmark run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunConfig captures the parameters a run was started with.
type RunConfig struct {
	Keep       float64 `json:"keep"`
	Levels     int     `json:"levels"`
	MaxRetries int     `json:"max_retries"`
	Provider   string  `json:"provider"`
	Model      string  `json:"model"`
	Seed       uint64  `json:"seed"`
}

// RunMeta describes a run at creation time.
type RunMeta struct {
	InputFile string    `json:"input_file"`
	Config    RunConfig `json:"config"`
}

// Run is a persisted benchmark run.
type Run struct {
	ID        string         `json:"id"`
	InputFile string         `json:"input_file"`
	Status    RunStatus      `json:"status"`
	Config    RunConfig      `json:"config"`
	Counters  map[string]int `json:"counters,omitempty"`
	Records   int            `json:"records"`
	Valid     int            `json:"valid"`
	CostUSD   float64        `json:"cost_usd"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
