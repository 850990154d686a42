package model

import "time"

// Run statuses, in the order a successful run passes through them.
const (
	StatusRunning     = "running"
	StatusLoading     = "loading"
	StatusCleaning    = "cleaning"
	StatusAggregating = "aggregating"
	StatusReshaping   = "reshaping"
	StatusAnalyzing   = "analyzing"
	StatusPresenting  = "presenting"
	StatusExporting   = "exporting"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
)

// StageMetrics represents metrics for a specific pipeline stage
type StageMetrics struct {
	Stage     string        `json:"stage"`
	Status    string        `json:"status"` // "completed" or "failed"
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Records   int64         `json:"records"`
}

// RunRecord is the persisted view of one pipeline invocation.
type RunRecord struct {
	ID           string     `json:"id"`
	Source       string     `json:"source"`
	Status       string     `json:"status"`
	Countries    int        `json:"countries"`
	Dates        int        `json:"dates"`
	Observations int64      `json:"observations"`
	GlobalMax    int64      `json:"global_max"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}
