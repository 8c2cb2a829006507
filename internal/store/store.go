// Package store persists analysis runs and their matched pairs in SQLite
// (the default, single-file) or PostgreSQL (shared deployments).
package store

import (
	"context"
	"time"

	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status       model.RunStatus `json:"status,omitempty"`
	CreatedAfter time.Time       `json:"created_after,omitempty"`
	Limit        int             `json:"limit,omitempty"`
	Offset       int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for analysis runs. Both backends
// create their schema on open.
type Store interface {
	// SaveRun inserts the run, or replaces the stored row when the id
	// already exists. A blank id and zero timestamps are filled in.
	SaveRun(ctx context.Context, run *model.Run) error
	// UpdateRunStatus flips a run to the given status, recording errMsg
	// for failed runs.
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus, errMsg string) error
	// GetRun returns the run, or (nil, nil) when the id is unknown.
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// SavePairs bulk-stores the matched pairs of a run in match order.
	SavePairs(ctx context.Context, runID string, pairs model.MatchResult) error
	// ListPairs returns a run's pairs in match order. A limit <= 0 means
	// no limit.
	ListPairs(ctx context.Context, runID string, limit, offset int) (model.MatchResult, error)
	CountPairs(ctx context.Context, runID string) (int, error)

	Close() error
}
