// Package search runs aging evolution over a search space: a fixed-size
// population of evaluated architectures, tournament parent selection,
// single-edit morphs, and age-based replacement. The engine owns the run's
// random stream and snapshots its full state for resumable checkpoints.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"micronas/internal/arch"
	"micronas/internal/bounds"
	"micronas/internal/eval"
	"micronas/internal/model"
	"micronas/internal/space"
)

// ErrRunAborted signals too many consecutive evaluation failures; the run
// state at abort time is still returned so it can be inspected or resumed.
var ErrRunAborted = errors.New("search run aborted")

// Checkpointer persists a full search state snapshot.
type Checkpointer interface {
	Save(state model.SearchState) error
}

type Config struct {
	Space     space.Space
	Evaluator eval.Evaluator
	Bounds    bounds.Config

	PopulationSize int
	TournamentSize int
	MaxAge         int
	Rounds         int

	// Checkpoint is optional; when set, state is saved every
	// CheckpointInterval rounds and once more at the end of the run.
	Checkpoint         Checkpointer
	CheckpointInterval int

	Seed         uint64
	MorphRetries int
	FailureLimit int
	Workers      int
	Logger       *slog.Logger
}

type Result struct {
	RunID      string
	Rounds     int
	Population []model.Individual
	Best       *model.Individual
	History    []model.RoundRecord
}

type Engine struct {
	cfg  Config
	rng  *Stream
	log  *slog.Logger
	pop  []model.Individual
	best *model.Individual

	runID      string
	round      int
	failStreak int
	history    []model.RoundRecord
}

func New(cfg Config) (*Engine, error) {
	if cfg.Space == nil {
		return nil, fmt.Errorf("search space is required")
	}
	if cfg.Evaluator == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	if err := cfg.Bounds.Validate(); err != nil {
		return nil, fmt.Errorf("bound config: %w", err)
	}
	if cfg.PopulationSize <= 1 {
		return nil, fmt.Errorf("population size must be > 1")
	}
	if cfg.TournamentSize <= 0 || cfg.TournamentSize >= cfg.PopulationSize {
		return nil, fmt.Errorf("tournament size must be in [1, population size)")
	}
	if cfg.Rounds <= 0 {
		return nil, fmt.Errorf("rounds must be > 0")
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 50
	}
	if cfg.CheckpointInterval <= 0 {
		cfg.CheckpointInterval = 10
	}
	if cfg.MorphRetries <= 0 {
		cfg.MorphRetries = 5
	}
	if cfg.FailureLimit <= 0 {
		cfg.FailureLimit = 10
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Engine{
		cfg:   cfg,
		rng:   NewStream(cfg.Seed),
		log:   cfg.Logger,
		runID: uuid.NewString(),
	}, nil
}

// Restore replaces the engine's population, progress counters, and random
// stream with a saved snapshot. It must be called before Run.
func (e *Engine) Restore(state model.SearchState) error {
	if state.Space != e.cfg.Space.Name() {
		return fmt.Errorf("snapshot is for space %q, engine runs %q", state.Space, e.cfg.Space.Name())
	}
	if len(state.Population) != e.cfg.PopulationSize {
		return fmt.Errorf("snapshot population mismatch: got=%d want=%d", len(state.Population), e.cfg.PopulationSize)
	}
	if err := e.rng.UnmarshalBinary(state.RNGState); err != nil {
		return err
	}
	e.runID = state.RunID
	e.round = state.Round
	e.pop = append([]model.Individual(nil), state.Population...)
	e.best = nil
	if state.Best != nil {
		best := *state.Best
		e.best = &best
	}
	return nil
}

// Run executes the search until the configured round count, the context
// ends, or the failure limit trips. A restored engine continues from its
// snapshot round; otherwise the first step seeds and evaluates a fresh
// random population.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	if e.pop == nil {
		if err := e.seedPopulation(ctx); err != nil {
			return e.result(), err
		}
	}

	for e.round < e.cfg.Rounds {
		if err := ctx.Err(); err != nil {
			return e.result(), err
		}
		if err := e.step(ctx); err != nil {
			return e.result(), err
		}
		e.round++

		if e.cfg.Checkpoint != nil && e.round%e.cfg.CheckpointInterval == 0 {
			e.checkpoint()
		}
	}

	if e.cfg.Checkpoint != nil {
		e.checkpoint()
	}
	return e.result(), nil
}

// State snapshots the engine for persistence. The snapshot is
// self-contained: population, round counter, best-so-far, and the exact
// random stream position.
func (e *Engine) State() (model.SearchState, error) {
	rngState, err := e.rng.MarshalBinary()
	if err != nil {
		return model.SearchState{}, fmt.Errorf("marshal random state: %w", err)
	}
	state := model.SearchState{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: model.SchemaVersion,
			CodecVersion:  model.CodecVersion,
		},
		RunID:      e.runID,
		Space:      e.cfg.Space.Name(),
		Round:      e.round,
		Population: append([]model.Individual(nil), e.pop...),
		RNGState:   rngState,
	}
	if e.best != nil {
		best := *e.best
		state.Best = &best
	}
	return state, nil
}

func (e *Engine) result() Result {
	return Result{
		RunID:      e.runID,
		Rounds:     e.round,
		Population: append([]model.Individual(nil), e.pop...),
		Best:       e.best,
		History:    append([]model.RoundRecord(nil), e.history...),
	}
}

func (e *Engine) checkpoint() {
	state, err := e.State()
	if err == nil {
		err = e.cfg.Checkpoint.Save(state)
	}
	if err != nil {
		// A failed save never kills the run; the next interval retries.
		e.log.Warn("checkpoint save failed", "run_id", e.runID, "round", e.round, "error", err)
		return
	}
	e.log.Debug("checkpoint saved", "run_id", e.runID, "round", e.round)
}

// seedPopulation draws the initial random architectures sequentially from
// the run stream, then evaluates them on the worker pool. Results are
// applied by index so concurrency never reorders the population.
func (e *Engine) seedPopulation(ctx context.Context) error {
	graphs := make([]arch.Graph, e.cfg.PopulationSize)
	for i := range graphs {
		graphs[i] = e.cfg.Space.Random(e.rng.Rand)
	}

	type result struct {
		idx int
		ind model.Individual
		err error
	}

	jobs := make(chan int)
	results := make(chan result, len(graphs))

	workerCount := e.cfg.Workers
	if workerCount > len(graphs) {
		workerCount = len(graphs)
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{idx: idx, err: err}
					continue
				}
				ind, err := e.evaluate(ctx, graphs[idx], idx)
				results <- result{idx: idx, ind: ind, err: err}
			}
		}()
	}

	for i := range graphs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(results)

	pop := make([]model.Individual, len(graphs))
	var firstErr error
	failures := 0
	for res := range results {
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		if !res.ind.Feasible && res.ind.Fitness == bounds.FailureFitness {
			failures++
		}
		pop[res.idx] = res.ind
	}
	if firstErr != nil {
		return firstErr
	}
	if failures > e.cfg.FailureLimit {
		return fmt.Errorf("%w: %d failures while seeding population", ErrRunAborted, failures)
	}

	e.pop = pop
	for i := range e.pop {
		e.trackBest(e.pop[i])
	}
	e.log.Info("population seeded", "run_id", e.runID, "size", len(e.pop), "failures", failures)
	return nil
}

// step runs one round: tournament selection, one morph (or a random
// fallback), evaluation, aging, and the removal of exactly one individual.
func (e *Engine) step(ctx context.Context) error {
	parent := e.tournament()
	childGraph, op := e.offspring(parent)

	child, err := e.evaluate(ctx, childGraph, e.cfg.PopulationSize+e.round)
	if err != nil {
		return err
	}

	if !child.Feasible && child.Fitness == bounds.FailureFitness {
		e.failStreak++
		if e.failStreak > e.cfg.FailureLimit {
			return fmt.Errorf("%w: %d consecutive evaluation failures", ErrRunAborted, e.failStreak)
		}
	} else {
		e.failStreak = 0
	}

	for i := range e.pop {
		e.pop[i].Age++
	}
	e.pop = append(e.pop, child)
	e.cull()
	e.trackBest(child)

	rec := model.RoundRecord{
		Round:       e.round + 1,
		CandidateID: child.ID,
		Operation:   op,
		Fitness:     child.Fitness,
		Feasible:    child.Feasible,
	}
	if e.best != nil {
		rec.BestFitness = e.best.Fitness
		rec.BestFeasible = e.best.Feasible
	}
	e.history = append(e.history, rec)

	e.log.Debug("round complete",
		"run_id", e.runID,
		"round", rec.Round,
		"op", op,
		"fitness", child.Fitness,
		"feasible", child.Feasible,
	)
	return nil
}

// tournament samples TournamentSize distinct individuals and returns the
// best among them.
func (e *Engine) tournament() model.Individual {
	sample := e.rng.Perm(len(e.pop))[:e.cfg.TournamentSize]
	winner := e.pop[sample[0]]
	for _, idx := range sample[1:] {
		if bounds.Less(e.pop[idx], winner) {
			winner = e.pop[idx]
		}
	}
	return winner
}

// offspring derives the next candidate from a tournament winner. When a
// parent offers no legal morphs the engine retries with fresh parents a
// bounded number of times before falling back to a random architecture, so
// saturated corners of the space cannot stall the run.
func (e *Engine) offspring(parent model.Individual) (arch.Graph, string) {
	for attempt := 0; ; attempt++ {
		morphs := e.cfg.Space.Morphs(parent.Arch)
		if len(morphs) > 0 {
			return morphs[e.rng.IntN(len(morphs))], "morph"
		}
		if attempt >= e.cfg.MorphRetries {
			return e.cfg.Space.Random(e.rng.Rand), "random"
		}
		parent = e.tournament()
	}
}

// evaluate scores one architecture. Training failures become infeasible
// individuals with the failure fitness; any other error is fatal to the
// round and bubbles up. Candidate IDs are a function of run ID and draw
// sequence, so a resumed run mints the same IDs the interrupted one would
// have.
func (e *Engine) evaluate(ctx context.Context, g arch.Graph, seq int) (model.Individual, error) {
	ind := model.Individual{ID: fmt.Sprintf("%s-%05d", e.runID, seq), Arch: g}

	metrics, err := e.cfg.Evaluator.Evaluate(ctx, g)
	if err != nil {
		if errors.Is(err, eval.ErrTraining) {
			e.log.Warn("candidate evaluation failed", "run_id", e.runID, "id", ind.ID, "error", err)
			ind.Feasible = false
			ind.Fitness = bounds.FailureFitness
			return ind, nil
		}
		return model.Individual{}, err
	}

	verdict := bounds.Judge(metrics, e.cfg.Bounds)
	ind.Metrics = &metrics
	ind.Feasible = verdict.Feasible
	ind.Fitness = verdict.Fitness
	return ind, nil
}

// cull removes exactly one individual: the worst among those past MaxAge
// when any exist, otherwise the worst overall.
func (e *Engine) cull() {
	victim := -1
	for i := range e.pop {
		if e.pop[i].Age <= e.cfg.MaxAge {
			continue
		}
		if victim == -1 || bounds.Less(e.pop[victim], e.pop[i]) {
			victim = i
		}
	}
	if victim == -1 {
		victim = 0
		for i := 1; i < len(e.pop); i++ {
			if bounds.Less(e.pop[victim], e.pop[i]) {
				victim = i
			}
		}
	}
	e.pop = append(e.pop[:victim], e.pop[victim+1:]...)
}

// trackBest records the best feasible individual seen so far. Infeasible
// individuals never hold the record: a run with no feasible candidate ends
// with a nil best.
func (e *Engine) trackBest(ind model.Individual) {
	if !ind.Feasible {
		return
	}
	if e.best == nil || bounds.Less(ind, *e.best) {
		best := ind
		e.best = &best
	}
}
