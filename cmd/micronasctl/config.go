package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"micronas/internal/bounds"
	"micronas/internal/eval"
	nasapi "micronas/pkg/micronas"
)

// runConfig is the on-disk shape of a run request. YAML and JSON share the
// same field names.
type runConfig struct {
	Space      string `json:"space" yaml:"space"`
	Population int    `json:"population_size" yaml:"population_size"`
	Tournament int    `json:"sample_size" yaml:"sample_size"`
	MaxAge     int    `json:"max_age" yaml:"max_age"`
	Rounds     int    `json:"rounds" yaml:"rounds"`
	Seed       uint64 `json:"seed" yaml:"seed"`
	Workers    int    `json:"workers" yaml:"workers"`
	SaveEvery  int    `json:"save_every" yaml:"save_every"`
	LoadFrom   string `json:"load_from" yaml:"load_from"`

	Bounds   bounds.Config       `json:"bounds" yaml:"bounds"`
	Training eval.TrainingConfig `json:"training" yaml:"training"`
}

func loadRunRequestFromConfig(path string) (nasapi.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nasapi.RunRequest{}, err
	}

	var cfg runConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nasapi.RunRequest{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nasapi.RunRequest{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return nasapi.RunRequest{}, fmt.Errorf("unsupported config format: %s", path)
	}

	return nasapi.RunRequest{
		Space:      cfg.Space,
		Population: cfg.Population,
		Tournament: cfg.Tournament,
		MaxAge:     cfg.MaxAge,
		Rounds:     cfg.Rounds,
		Seed:       cfg.Seed,
		Workers:    cfg.Workers,
		SaveEvery:  cfg.SaveEvery,
		LoadFrom:   cfg.LoadFrom,
		Bounds:     cfg.Bounds,
		Training:   cfg.Training,
	}, nil
}
