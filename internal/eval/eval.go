// Package eval defines the evaluator boundary: the collaborator that turns
// a candidate architecture into measured metrics. The search engine only
// sees this interface; training itself happens elsewhere.
package eval

import (
	"context"
	"errors"
	"fmt"

	"micronas/internal/arch"
	"micronas/internal/model"
)

// ErrTraining marks a per-candidate training or measurement failure. The
// engine recovers from it by scoring the candidate as infeasible with the
// worst possible fitness; it never aborts a run on its own.
var ErrTraining = errors.New("training failure")

// Evaluator measures one candidate architecture.
type Evaluator interface {
	Evaluate(ctx context.Context, g arch.Graph) (model.Metrics, error)
}

// OptimizerConfig names a recognized optimizer and its settings. It
// replaces opaque optimizer factories with declarative options resolved
// once at evaluator construction.
type OptimizerConfig struct {
	Name         string  `json:"name" yaml:"name"`
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"`
}

// PlateauSchedule scales the learning rate down when validation error
// stops improving.
type PlateauSchedule struct {
	Factor   float64 `json:"factor" yaml:"factor"`
	Patience int     `json:"patience" yaml:"patience"`
}

// TrainingConfig is the declarative training recipe handed to evaluators.
type TrainingConfig struct {
	Epochs    int             `json:"epochs" yaml:"epochs"`
	BatchSize int             `json:"batch_size" yaml:"batch_size"`
	Optimizer OptimizerConfig `json:"optimizer" yaml:"optimizer"`
	Schedule  PlateauSchedule `json:"schedule" yaml:"schedule"`
}

// WithDefaults fills unset fields with the standard recipe.
func (c TrainingConfig) WithDefaults() TrainingConfig {
	if c.Epochs <= 0 {
		c.Epochs = 75
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 16
	}
	if c.Optimizer.Name == "" {
		c.Optimizer.Name = "adam"
	}
	if c.Optimizer.LearningRate <= 0 {
		c.Optimizer.LearningRate = 0.001
	}
	if c.Schedule.Factor <= 0 {
		c.Schedule.Factor = 0.5
	}
	if c.Schedule.Patience <= 0 {
		c.Schedule.Patience = 4
	}
	return c
}

func (c TrainingConfig) Validate() error {
	switch c.Optimizer.Name {
	case "", "adam", "sgd", "rmsprop":
	default:
		return fmt.Errorf("unrecognized optimizer: %s", c.Optimizer.Name)
	}
	if c.Epochs < 0 || c.BatchSize < 0 {
		return errors.New("epochs and batch size must be >= 0")
	}
	return nil
}
