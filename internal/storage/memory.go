package storage

import (
	"context"
	"sync"

	"micronas/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	history     map[string][]model.RoundRecord
	best        map[string]model.Individual
	states      map[string]model.SearchState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.history = make(map[string][]model.RoundRecord)
	s.best = make(map[string]model.Individual)
	s.states = make(map[string]model.SearchState)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sortRuns(runs)
	return runs, nil
}

func (s *MemoryStore) SaveHistory(_ context.Context, runID string, history []model.RoundRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.RoundRecord, len(history))
	copy(copied, history)
	s.history[runID] = copied
	return nil
}

func (s *MemoryStore) GetHistory(_ context.Context, runID string) ([]model.RoundRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.RoundRecord, len(history))
	copy(copied, history)
	return copied, true, nil
}

func (s *MemoryStore) SaveBest(_ context.Context, runID string, best model.Individual) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.best[runID] = best
	return nil
}

func (s *MemoryStore) GetBest(_ context.Context, runID string) (model.Individual, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best, ok := s.best[runID]
	return best, ok, nil
}

func (s *MemoryStore) SaveState(_ context.Context, state model.SearchState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state.Population = append([]model.Individual(nil), state.Population...)
	state.RNGState = append([]byte(nil), state.RNGState...)
	s.states[state.RunID] = state
	return nil
}

func (s *MemoryStore) GetState(_ context.Context, runID string) (model.SearchState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[runID]
	if !ok {
		return model.SearchState{}, false, nil
	}
	state.Population = append([]model.Individual(nil), state.Population...)
	state.RNGState = append([]byte(nil), state.RNGState...)
	return state, true, nil
}
