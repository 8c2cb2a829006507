package model

import "time"

// RunStatus represents the current state of an analysis run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunConfig is the snapshot of matching configuration a run was executed
// with, persisted alongside the run so stored results stay reproducible.
type RunConfig struct {
	Characteristic   string  `json:"characteristic" yaml:"characteristic"`
	StateCode        string  `json:"state_code" yaml:"state_code"`
	StartDate        string  `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate          string  `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	MaxDistanceM     float64 `json:"max_distance_meters" yaml:"max_distance_meters"`
	MaxTimeHours     float64 `json:"max_time_hours" yaml:"max_time_hours"`
	Strategy         string  `json:"strategy" yaml:"strategy"`
	MinConcentration float64 `json:"min_concentration" yaml:"min_concentration"`
}

// Run represents a single virtual-triangulation analysis run.
type Run struct {
	ID                string             `json:"id" yaml:"id"`
	Status            RunStatus          `json:"status" yaml:"status"`
	Config            RunConfig          `json:"config" yaml:"config"`
	VolunteerCount    int                `json:"volunteer_count" yaml:"volunteer_count"`
	ProfessionalCount int                `json:"professional_count" yaml:"professional_count"`
	PairCount         int                `json:"pair_count" yaml:"pair_count"`
	Summary           *RegressionSummary `json:"summary,omitempty" yaml:"summary,omitempty"`
	Error             string             `json:"error,omitempty" yaml:"error,omitempty"`
	CreatedAt         time.Time          `json:"created_at" yaml:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" yaml:"updated_at"`
}

// Finished reports whether the run reached a terminal state.
func (r *Run) Finished() bool {
	return r.Status == RunStatusComplete || r.Status == RunStatusFailed
}
