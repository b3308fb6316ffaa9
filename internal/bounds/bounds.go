// Package bounds turns measured candidate metrics into a feasibility
// verdict and a scalar fitness. Every bound is an upper bound; a candidate
// is feasible only when all configured bounds hold at once.
package bounds

import (
	"fmt"
	"math"

	"micronas/internal/model"
)

// FailureFitness marks candidates whose evaluation failed outright. It is
// strictly worse than any infeasible penalty and still finite so state
// snapshots stay serializable.
const FailureFitness = math.MaxFloat64

// penaltyBase places every infeasible fitness above the feasible range.
// Feasible fitness equals the measured error, a fraction in [0,1].
const penaltyBase = 2.0

// Config holds the four resource bounds. A zero bound disables that
// constraint.
type Config struct {
	ErrorBound     float64 `json:"error_bound" yaml:"error_bound"`
	PeakMemBound   uint64  `json:"peak_mem_bound" yaml:"peak_mem_bound"`
	ModelSizeBound uint64  `json:"model_size_bound" yaml:"model_size_bound"`
	MACBound       uint64  `json:"mac_bound" yaml:"mac_bound"`
}

func (c Config) Validate() error {
	if c.ErrorBound < 0 || c.ErrorBound > 1 {
		return fmt.Errorf("error bound must be in [0,1], got %g", c.ErrorBound)
	}
	return nil
}

// Verdict is the outcome of judging one candidate's metrics.
type Verdict struct {
	Feasible bool
	Fitness  float64
}

// Judge compares metrics against the configured bounds. Feasible candidates
// score their measured error (lower is better). Infeasible candidates score
// a penalty above any feasible value, scaled by the worst violation
// fraction so the search keeps a gradient toward feasibility.
func Judge(m model.Metrics, c Config) Verdict {
	worst := 0.0
	exceed := func(value, bound float64) {
		if bound <= 0 || value <= bound {
			return
		}
		if frac := value/bound - 1; frac > worst {
			worst = frac
		}
	}
	exceed(m.Error, c.ErrorBound)
	exceed(float64(m.PeakMem), float64(c.PeakMemBound))
	exceed(float64(m.ModelSize), float64(c.ModelSizeBound))
	exceed(float64(m.MACs), float64(c.MACBound))

	if worst > 0 {
		return Verdict{Feasible: false, Fitness: penaltyBase + worst}
	}
	return Verdict{Feasible: true, Fitness: m.Error}
}

// Less ranks a strictly better than b. Feasible individuals always outrank
// infeasible ones; ties fall through fitness, then the secondary resource
// metrics, then the ID, making the order total and deterministic.
func Less(a, b model.Individual) bool {
	if a.Feasible != b.Feasible {
		return a.Feasible
	}
	if a.Fitness != b.Fitness {
		return a.Fitness < b.Fitness
	}
	am, bm := a.Metrics, b.Metrics
	if am != nil && bm != nil {
		if am.ModelSize != bm.ModelSize {
			return am.ModelSize < bm.ModelSize
		}
		if am.MACs != bm.MACs {
			return am.MACs < bm.MACs
		}
		if am.PeakMem != bm.PeakMem {
			return am.PeakMem < bm.PeakMem
		}
	}
	return a.ID < b.ID
}
