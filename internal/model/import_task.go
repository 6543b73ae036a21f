package model

import (
	"time"
)

// Import task statuses. A task starts pending, moves to running on
// dispatch, and ends in exactly one terminal state.
const (
	TaskStatusPending   = "pending"
	TaskStatusRunning   = "running"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
	TaskStatusCancelled = "cancelled"
)

// ImportTask tracks one historical-data import through its lifecycle.
// Progress is monotonically non-decreasing while the task is running and
// reaches exactly 1.0 only when the task completes.
type ImportTask struct {
	ID              string     `json:"id" db:"id"`
	AssetType       string     `json:"asset_type" db:"asset_type"`
	Symbol          string     `json:"symbol" db:"symbol"`
	Source          string     `json:"source" db:"source"`
	StartTime       time.Time  `json:"start_time" db:"start_time"`
	EndTime         time.Time  `json:"end_time" db:"end_time"`
	Interval        string     `json:"interval" db:"interval"`
	Status          string     `json:"status" db:"status"`
	Progress        float64    `json:"progress" db:"progress"`
	Error           string     `json:"error,omitempty" db:"error"`
	TotalCandles    int        `json:"total_candles" db:"total_candles"`
	ImportedCandles int        `json:"imported_candles" db:"imported_candles"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// IsTerminal reports whether the task has reached a final state.
func (t *ImportTask) IsTerminal() bool {
	switch t.Status {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// ImportRequest is the HTTP payload for starting an import.
type ImportRequest struct {
	AssetType string    `json:"asset_type" binding:"required"`
	Symbol    string    `json:"symbol" binding:"required"`
	Source    string    `json:"source" binding:"required"`
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
	Interval  string    `json:"interval" binding:"required"`
}
