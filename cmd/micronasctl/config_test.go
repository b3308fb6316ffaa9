package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadRunRequestFromYAML(t *testing.T) {
	path := writeConfig(t, "run.yaml", `
space: cnn2d
population_size: 100
sample_size: 25
max_age: 50
rounds: 2000
seed: 42
save_every: 25
bounds:
  error_bound: 0.4
  peak_mem_bound: 20000
  model_size_bound: 50000
  mac_bound: 30000
training:
  epochs: 30
  batch_size: 32
  optimizer:
    name: sgd
    learning_rate: 0.01
`)

	req, err := loadRunRequestFromConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if req.Space != "cnn2d" || req.Population != 100 || req.Tournament != 25 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Rounds != 2000 || req.Seed != 42 || req.SaveEvery != 25 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Bounds.ErrorBound != 0.4 || req.Bounds.PeakMemBound != 20000 {
		t.Fatalf("unexpected bounds: %+v", req.Bounds)
	}
	if req.Bounds.ModelSizeBound != 50000 || req.Bounds.MACBound != 30000 {
		t.Fatalf("unexpected bounds: %+v", req.Bounds)
	}
	if req.Training.Epochs != 30 || req.Training.Optimizer.Name != "sgd" {
		t.Fatalf("unexpected training config: %+v", req.Training)
	}
}

func TestLoadRunRequestFromJSON(t *testing.T) {
	path := writeConfig(t, "run.json", `{
  "space": "mlp",
  "population_size": 10,
  "sample_size": 3,
  "rounds": 50,
  "bounds": {"error_bound": 0.2},
  "training": {"epochs": 10}
}`)

	req, err := loadRunRequestFromConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if req.Space != "mlp" || req.Population != 10 || req.Tournament != 3 || req.Rounds != 50 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Bounds.ErrorBound != 0.2 || req.Training.Epochs != 10 {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestLoadRunRequestRejectsUnknownFormat(t *testing.T) {
	path := writeConfig(t, "run.toml", "space = \"mlp\"")
	if _, err := loadRunRequestFromConfig(path); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestLoadRunRequestMissingFile(t *testing.T) {
	if _, err := loadRunRequestFromConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected read error")
	}
}
