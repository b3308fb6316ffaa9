package storage

import (
	"context"
	"sort"

	"micronas/internal/model"
)

// Store persists search runs: the run summary, its per-round history, the
// best architecture found, and the latest resumable state snapshot. All
// records are keyed by run ID.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveHistory(ctx context.Context, runID string, history []model.RoundRecord) error
	GetHistory(ctx context.Context, runID string) ([]model.RoundRecord, bool, error)
	SaveBest(ctx context.Context, runID string, best model.Individual) error
	GetBest(ctx context.Context, runID string) (model.Individual, bool, error)
	SaveState(ctx context.Context, state model.SearchState) error
	GetState(ctx context.Context, runID string) (model.SearchState, bool, error)
}

// sortRuns orders run listings by creation time, then ID for stability.
func sortRuns(runs []model.RunRecord) {
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAtUTC != runs[j].CreatedAtUTC {
			return runs[i].CreatedAtUTC < runs[j].CreatedAtUTC
		}
		return runs[i].ID < runs[j].ID
	})
}
