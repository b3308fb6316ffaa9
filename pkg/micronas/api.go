// Package micronas is the embedding surface for the architecture search:
// a Client that runs searches, resumes them from checkpoints, and reads
// back persisted runs, history, and best architectures.
package micronas

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"micronas/internal/bounds"
	"micronas/internal/checkpoint"
	"micronas/internal/eval"
	"micronas/internal/model"
	"micronas/internal/search"
	"micronas/internal/space"
	"micronas/internal/storage"
)

const (
	defaultDBPath        = "micronas.db"
	defaultCheckpointDir = "checkpoints"
)

type Options struct {
	StoreKind     string
	DBPath        string
	CheckpointDir string
	Logger        *slog.Logger
}

type Client struct {
	store         storage.Store
	checkpointDir string
	log           *slog.Logger

	initOnce sync.Once
	initErr  error
}

type RunRequest struct {
	Space      string
	Population int
	Tournament int
	MaxAge     int
	Rounds     int
	Seed       uint64
	Workers    int

	// SaveEvery is the checkpoint interval in rounds; LoadFrom resumes
	// from an existing checkpoint file instead of seeding a fresh
	// population.
	SaveEvery int
	LoadFrom  string

	Bounds   bounds.Config
	Training eval.TrainingConfig

	// Evaluator overrides the built-in analytic surrogate; embedders
	// plug in a real trainer here.
	Evaluator eval.Evaluator
}

type RunSummary struct {
	RunID          string
	Space          string
	Rounds         int
	CheckpointPath string
	BestFitness    float64
	BestFeasible   bool
	BestMetrics    *model.Metrics
}

type RunsRequest struct {
	Limit int
}

type HistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type BestRequest struct {
	RunID  string
	Latest bool
}

func New(opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	checkpointDir := opts.CheckpointDir
	if checkpointDir == "" {
		checkpointDir = defaultCheckpointDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:         store,
		checkpointDir: checkpointDir,
		log:           logger,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) ensureStore(ctx context.Context) error {
	c.initOnce.Do(func() {
		c.initErr = c.store.Init(ctx)
	})
	return c.initErr
}

// Spaces lists the built-in search spaces.
func (c *Client) Spaces() []string {
	return space.Names()
}

// Run executes one search to completion (or abort) and persists its
// summary, round history, best architecture, and final state. The returned
// summary describes the best architecture found even when the run aborted
// early; the abort error is returned alongside it.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Space == "" {
		req.Space = "cnn2d"
	}
	if req.Population <= 0 {
		req.Population = 25
	}
	if req.Tournament <= 0 {
		req.Tournament = 5
	}
	if req.Rounds <= 0 {
		req.Rounds = 200
	}
	if req.Workers <= 0 {
		req.Workers = 4
	}

	if err := c.ensureStore(ctx); err != nil {
		return RunSummary{}, err
	}

	sp, err := space.New(req.Space)
	if err != nil {
		return RunSummary{}, err
	}

	evaluator := req.Evaluator
	if evaluator == nil {
		evaluator, err = eval.NewSurrogate(sp, req.Training)
		if err != nil {
			return RunSummary{}, err
		}
	}

	checkpointPath := req.LoadFrom
	if checkpointPath == "" {
		checkpointPath = filepath.Join(c.checkpointDir, fmt.Sprintf("%s-%d.json", req.Space, req.Seed))
	}
	mgr, err := checkpoint.NewManager(checkpointPath)
	if err != nil {
		return RunSummary{}, err
	}

	engine, err := search.New(search.Config{
		Space:              sp,
		Evaluator:          evaluator,
		Bounds:             req.Bounds,
		PopulationSize:     req.Population,
		TournamentSize:     req.Tournament,
		MaxAge:             req.MaxAge,
		Rounds:             req.Rounds,
		Checkpoint:         mgr,
		CheckpointInterval: req.SaveEvery,
		Seed:               req.Seed,
		Workers:            req.Workers,
		Logger:             c.log,
	})
	if err != nil {
		return RunSummary{}, err
	}

	var priorHistory []model.RoundRecord
	if req.LoadFrom != "" {
		state, err := mgr.Load()
		if err != nil {
			return RunSummary{}, err
		}
		if err := engine.Restore(state); err != nil {
			return RunSummary{}, err
		}
		if history, ok, err := c.store.GetHistory(ctx, state.RunID); err == nil && ok {
			priorHistory = history
		}
		c.log.Info("resuming run", "run_id", state.RunID, "round", state.Round, "checkpoint", checkpointPath)
	}

	result, runErr := engine.Run(ctx)
	if result.RunID == "" {
		return RunSummary{}, runErr
	}

	history := append(priorHistory, result.History...)
	summary := RunSummary{
		RunID:          result.RunID,
		Space:          req.Space,
		Rounds:         result.Rounds,
		CheckpointPath: checkpointPath,
	}
	if result.Best != nil {
		summary.BestFitness = result.Best.Fitness
		summary.BestFeasible = result.Best.Feasible
		summary.BestMetrics = result.Best.Metrics
	}

	if err := c.persistRun(ctx, engine, req, result, history); err != nil {
		if runErr == nil {
			return summary, err
		}
		c.log.Warn("persisting run failed", "run_id", result.RunID, "error", err)
	}
	return summary, runErr
}

func (c *Client) persistRun(ctx context.Context, engine *search.Engine, req RunRequest, result search.Result, history []model.RoundRecord) error {
	run := model.RunRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: model.SchemaVersion, CodecVersion: model.CodecVersion},
		ID:              result.RunID,
		Space:           req.Space,
		Seed:            req.Seed,
		Rounds:          result.Rounds,
		CreatedAtUTC:    time.Now().UTC().Format(time.RFC3339),
	}
	if result.Best != nil {
		run.BestFitness = result.Best.Fitness
		run.BestFeasible = result.Best.Feasible
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	if err := c.store.SaveHistory(ctx, result.RunID, history); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	if result.Best != nil {
		if err := c.store.SaveBest(ctx, result.RunID, *result.Best); err != nil {
			return fmt.Errorf("save best: %w", err)
		}
	}
	state, err := engine.State()
	if err != nil {
		return fmt.Errorf("snapshot state: %w", err)
	}
	if err := c.store.SaveState(ctx, state); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Runs lists persisted runs, newest last.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]model.RunRecord, error) {
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if req.Limit > 0 && len(runs) > req.Limit {
		runs = runs[len(runs)-req.Limit:]
	}
	return runs, nil
}

// History returns a run's per-round records.
func (c *Client) History(ctx context.Context, req HistoryRequest) ([]model.RoundRecord, error) {
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no history for run %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[len(history)-req.Limit:]
	}
	return history, nil
}

// Best returns the best architecture a run found.
func (c *Client) Best(ctx context.Context, req BestRequest) (model.Individual, error) {
	if err := c.ensureStore(ctx); err != nil {
		return model.Individual{}, err
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return model.Individual{}, err
	}
	best, ok, err := c.store.GetBest(ctx, runID)
	if err != nil {
		return model.Individual{}, err
	}
	if !ok {
		return model.Individual{}, fmt.Errorf("no best architecture for run %s", runID)
	}
	return best, nil
}

func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool) (string, error) {
	if runID != "" {
		return runID, nil
	}
	if !latest {
		return "", fmt.Errorf("run id or latest is required")
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("no runs recorded")
	}
	return runs[len(runs)-1].ID, nil
}
