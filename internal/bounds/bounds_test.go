package bounds

import (
	"testing"

	"micronas/internal/model"
)

func exampleConfig() Config {
	return Config{
		ErrorBound:     0.4,
		PeakMemBound:   20000,
		ModelSizeBound: 50000,
		MACBound:       30000,
	}
}

func TestJudgeFeasibleScoresError(t *testing.T) {
	v := Judge(model.Metrics{Error: 0.3, PeakMem: 15000, ModelSize: 40000, MACs: 25000}, exampleConfig())
	if !v.Feasible {
		t.Fatal("expected feasible verdict")
	}
	if v.Fitness != 0.3 {
		t.Fatalf("expected fitness 0.3, got %g", v.Fitness)
	}
}

func TestJudgeInfeasibleDespiteLowerError(t *testing.T) {
	cfg := exampleConfig()
	good := Judge(model.Metrics{Error: 0.3, PeakMem: 15000, ModelSize: 40000, MACs: 25000}, cfg)
	bad := Judge(model.Metrics{Error: 0.2, PeakMem: 25000, ModelSize: 40000, MACs: 25000}, cfg)

	if bad.Feasible {
		t.Fatal("expected infeasible verdict for memory violation")
	}
	if bad.Fitness <= good.Fitness {
		t.Fatalf("infeasible fitness %g must be worse than feasible %g", bad.Fitness, good.Fitness)
	}

	a := model.Individual{ID: "a", Fitness: good.Fitness, Feasible: good.Feasible}
	b := model.Individual{ID: "b", Fitness: bad.Fitness, Feasible: bad.Feasible}
	if !Less(a, b) || Less(b, a) {
		t.Fatal("feasible individual must outrank infeasible one")
	}
}

func TestJudgePenaltyScalesWithViolation(t *testing.T) {
	cfg := exampleConfig()
	mild := Judge(model.Metrics{Error: 0.2, PeakMem: 22000, ModelSize: 40000, MACs: 25000}, cfg)
	severe := Judge(model.Metrics{Error: 0.2, PeakMem: 40000, ModelSize: 40000, MACs: 25000}, cfg)

	if mild.Feasible || severe.Feasible {
		t.Fatal("expected both infeasible")
	}
	if severe.Fitness <= mild.Fitness {
		t.Fatalf("expected worse violation to score worse: %g vs %g", severe.Fitness, mild.Fitness)
	}
}

func TestJudgeWorstViolationWins(t *testing.T) {
	cfg := exampleConfig()
	// MACs exceeded by 100%, memory by 10%: the MAC excess dominates.
	v := Judge(model.Metrics{Error: 0.2, PeakMem: 22000, ModelSize: 40000, MACs: 60000}, cfg)
	if v.Feasible {
		t.Fatal("expected infeasible")
	}
	if want := penaltyBase + 1.0; v.Fitness != want {
		t.Fatalf("expected fitness %g, got %g", want, v.Fitness)
	}
}

func TestJudgeZeroBoundDisablesConstraint(t *testing.T) {
	cfg := Config{ErrorBound: 0.4}
	v := Judge(model.Metrics{Error: 0.1, PeakMem: 1 << 40, ModelSize: 1 << 40, MACs: 1 << 40}, cfg)
	if !v.Feasible {
		t.Fatal("unbounded resources must not fail feasibility")
	}
}

func TestLessBreaksTiesOnResources(t *testing.T) {
	base := model.Metrics{Error: 0.3, PeakMem: 100, ModelSize: 100, MACs: 100}
	smaller := base
	smaller.ModelSize = 50

	a := model.Individual{ID: "a", Feasible: true, Fitness: 0.3, Metrics: &base}
	b := model.Individual{ID: "b", Feasible: true, Fitness: 0.3, Metrics: &smaller}

	if !Less(b, a) {
		t.Fatal("smaller model must win the fitness tie")
	}
	if Less(a, b) {
		t.Fatal("ordering must be asymmetric")
	}

	c := a
	c.ID = "c"
	if !Less(a, c) || Less(c, a) {
		t.Fatal("identical metrics must fall back to ID ordering")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := exampleConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	if err := (Config{ErrorBound: 1.5}).Validate(); err == nil {
		t.Fatal("expected error for out-of-range error bound")
	}
}
