// Package checkpoint persists search state snapshots to a single file.
// Saves are atomic: the snapshot is written to a temp file in the target
// directory, synced, then renamed over the previous one, so a crash mid-save
// leaves the last complete checkpoint intact.
package checkpoint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"micronas/internal/model"
	"micronas/internal/storage"
)

// ErrNotFound reports that no checkpoint exists at the manager's path.
var ErrNotFound = errors.New("checkpoint not found")

type Manager struct {
	path string
}

func NewManager(path string) (*Manager, error) {
	if path == "" {
		return nil, fmt.Errorf("checkpoint path is required")
	}
	return &Manager{path: path}, nil
}

func (m *Manager) Path() string { return m.path }

func (m *Manager) Save(state model.SearchState) error {
	data, err := storage.EncodeState(state)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".checkpoint-*")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close checkpoint: %w", err)
	}
	if err := os.Rename(tmpPath, m.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	return nil
}

func (m *Manager) Load() (model.SearchState, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.SearchState{}, fmt.Errorf("%w: %s", ErrNotFound, m.path)
		}
		return model.SearchState{}, fmt.Errorf("read checkpoint: %w", err)
	}

	state, err := storage.DecodeState(data)
	if err != nil {
		return model.SearchState{}, fmt.Errorf("decode checkpoint %s: %w", m.path, err)
	}
	return state, nil
}
