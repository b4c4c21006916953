package models

import "time"

// DensityRun records the metadata of one density map computation.
// Field values are never stored; every request recomputes from scratch.
type DensityRun struct {
	ID int64 `json:"id" db:"id"`

	RequestID   string `json:"request_id" db:"request_id"`
	Fingerprint string `json:"fingerprint" db:"fingerprint"` // xxhash of the raw inputs

	// Inputs
	SampleCount int     `json:"sample_count" db:"sample_count"`
	Resolution  int     `json:"resolution" db:"resolution"`
	Fudge       float64 `json:"fudge" db:"fudge"`
	TrueValue   string  `json:"true_value" db:"true_value"`

	// Binarization
	Categorical   bool   `json:"categorical" db:"categorical"`
	Threshold     string `json:"threshold" db:"threshold"`
	PositiveCount int    `json:"positive_count" db:"positive_count"`

	// Execution
	Status       string `json:"status" db:"status"` // completed, failed
	DurationMs   int64  `json:"duration_ms" db:"duration_ms"`
	ErrorMessage string `json:"error_message,omitempty" db:"error_message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RunStatus constants
const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// RunFilter selects a page of run history
type RunFilter struct {
	Status      string `form:"status"`
	Fingerprint string `form:"fingerprint"`
	Limit       int    `form:"limit"`
	Offset      int    `form:"offset"`
}
