package space

import (
	"math/rand/v2"
	"reflect"
	"testing"

	"micronas/internal/arch"
)

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

func allSpaces() []Space {
	return []Space{NewCnn2D(nil, 0), NewCnn1D(nil, 0), NewMLP(0, 0)}
}

func TestRandomArchitecturesAlwaysValidate(t *testing.T) {
	for _, sp := range allSpaces() {
		t.Run(sp.Name(), func(t *testing.T) {
			rng := newRNG(7)
			for i := 0; i < 200; i++ {
				g := sp.Random(rng)
				if err := arch.Validate(sp.Schema(), g); err != nil {
					t.Fatalf("random architecture %d invalid: %v", i, err)
				}
			}
		})
	}
}

func TestMorphsAlwaysValidate(t *testing.T) {
	for _, sp := range allSpaces() {
		t.Run(sp.Name(), func(t *testing.T) {
			rng := newRNG(11)
			for i := 0; i < 30; i++ {
				parent := sp.Random(rng)
				for mi, m := range sp.Morphs(parent) {
					if err := arch.Validate(sp.Schema(), m); err != nil {
						t.Fatalf("morph %d of architecture %d invalid: %v", mi, i, err)
					}
				}
			}
		})
	}
}

func TestMorphsAreDeterministic(t *testing.T) {
	for _, sp := range allSpaces() {
		t.Run(sp.Name(), func(t *testing.T) {
			rng := newRNG(3)
			for i := 0; i < 10; i++ {
				parent := sp.Random(rng)
				first := sp.Morphs(parent)
				second := sp.Morphs(parent)
				if !reflect.DeepEqual(first, second) {
					t.Fatalf("morph menu for architecture %d is not deterministic", i)
				}
			}
		})
	}
}

// countParamDiffs returns how many (node, param) entries differ between two
// graphs of identical shape.
func countParamDiffs(a, b arch.Graph) int {
	diffs := 0
	for i := range a.Nodes {
		keys := map[string]bool{}
		for k := range a.Nodes[i].Params {
			keys[k] = true
		}
		for k := range b.Nodes[i].Params {
			keys[k] = true
		}
		for k := range keys {
			if a.Nodes[i].Params[k] != b.Nodes[i].Params[k] {
				diffs++
			}
		}
	}
	return diffs
}

func TestMorphsChangeExactlyOneDimension(t *testing.T) {
	for _, sp := range allSpaces() {
		t.Run(sp.Name(), func(t *testing.T) {
			rng := newRNG(19)
			for i := 0; i < 20; i++ {
				parent := sp.Random(rng)
				for mi, m := range sp.Morphs(parent) {
					switch len(m.Nodes) - len(parent.Nodes) {
					case 0:
						if diffs := countParamDiffs(parent, m); diffs != 1 {
							t.Fatalf("morph %d of architecture %d changed %d params, want 1", mi, i, diffs)
						}
					case 1, -1:
						// depth change; width invariance is implied by
						// insert/remove never touching other nodes' params
					default:
						t.Fatalf("morph %d of architecture %d changed node count by %d",
							mi, i, len(m.Nodes)-len(parent.Nodes))
					}
				}
			}
		})
	}
}

func TestWidenNeverChangesDepth(t *testing.T) {
	sp := NewCnn2D(nil, 0)
	rng := newRNG(23)
	parent := sp.Random(rng)
	for _, m := range widthMorphs(sp.Schema(), cnn2DWidthKey, parent) {
		if m.Depth() != parent.Depth() {
			t.Fatalf("width morph changed depth: %d -> %d", parent.Depth(), m.Depth())
		}
	}
}

func TestMinimalArchitectureOffersOnlyInsertions(t *testing.T) {
	sp := NewMLP(0, 0)
	minimal := arch.Graph{
		Nodes: []arch.Node{{Op: "input"}, {Op: "output"}},
		Edges: []arch.Edge{{From: 0, To: 1}},
	}
	if err := arch.Validate(sp.Schema(), minimal); err != nil {
		t.Fatalf("minimal graph invalid: %v", err)
	}

	morphs := sp.Morphs(minimal)
	if len(morphs) == 0 {
		t.Fatal("expected insertion candidates for the minimal architecture")
	}
	for i, m := range morphs {
		if len(m.Nodes) != len(minimal.Nodes)+1 {
			t.Fatalf("morph %d is not an insertion: %d nodes", i, len(m.Nodes))
		}
	}
}

func TestRemoveRespectsSchemaAdjacency(t *testing.T) {
	// The sole conv between input and dense cannot be removed: input may
	// not feed dense directly in the cnn2d schema.
	sp := NewCnn2D(nil, 0)
	g := arch.Graph{
		Nodes: []arch.Node{
			{Op: "input"},
			{Op: "conv", Params: map[string]int{"filters": 8, "kernel": 3, "stride": 1}},
			{Op: "dense", Params: map[string]int{"units": 16}},
			{Op: "output"},
		},
		Edges: []arch.Edge{{From: 0, To: 1}, {From: 1, To: 2}, {From: 2, To: 3}},
	}
	if err := arch.Validate(sp.Schema(), g); err != nil {
		t.Fatalf("fixture invalid: %v", err)
	}
	if removals := removeMorphs(sp.Schema(), g); len(removals) != 0 {
		t.Fatalf("expected no removal candidates, got %d", len(removals))
	}
}

func TestResidualJoinMorphsValidate(t *testing.T) {
	sp := NewCnn2D(nil, 0)
	g := arch.Graph{
		Nodes: []arch.Node{
			{Op: "input"},
			{Op: "conv", Params: map[string]int{"filters": 16, "kernel": 3, "stride": 1}},
			{Op: "conv", Params: map[string]int{"filters": 16, "kernel": 3, "stride": 1}},
			{Op: "add"},
			{Op: "dense", Params: map[string]int{"units": 32}},
			{Op: "output"},
		},
		Edges: []arch.Edge{{From: 0, To: 1}, {From: 1, To: 2}, {From: 2, To: 3}, {From: 1, To: 3}, {From: 3, To: 4}, {From: 4, To: 5}},
	}
	if err := arch.Validate(sp.Schema(), g); err != nil {
		t.Fatalf("fixture invalid: %v", err)
	}
	morphs := sp.Morphs(g)
	if len(morphs) == 0 {
		t.Fatal("expected morphs for residual graph")
	}
	for i, m := range morphs {
		if err := arch.Validate(sp.Schema(), m); err != nil {
			t.Fatalf("morph %d invalid: %v", i, err)
		}
	}
}
