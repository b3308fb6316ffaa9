package space

import (
	"testing"
)

func TestNewResolvesBuiltinSpaces(t *testing.T) {
	for _, name := range Names() {
		sp, err := New(name)
		if err != nil {
			t.Fatalf("resolve %s: %v", name, err)
		}
		if sp.Name() != name {
			t.Fatalf("expected space %q, got %q", name, sp.Name())
		}
	}
	if _, err := New("transformer"); err == nil {
		t.Fatal("expected error for unknown space")
	}
}

func TestMaterializeFlattensInTopoOrder(t *testing.T) {
	sp := NewCnn2D([]int{28, 28, 1}, 10)
	rng := newRNG(5)
	g := sp.Random(rng)

	spec := sp.Model(g)
	if len(spec.Layers) != len(g.Nodes) {
		t.Fatalf("expected %d layers, got %d", len(g.Nodes), len(spec.Layers))
	}
	if spec.Layers[0].Kind != "input" {
		t.Fatalf("expected input first, got %q", spec.Layers[0].Kind)
	}
	if spec.Layers[len(spec.Layers)-1].Kind != "output" {
		t.Fatalf("expected output last, got %q", spec.Layers[len(spec.Layers)-1].Kind)
	}
	if spec.NumClasses != 10 || len(spec.InputShape) != 3 {
		t.Fatalf("unexpected spec header: classes=%d shape=%v", spec.NumClasses, spec.InputShape)
	}
	for i, layer := range spec.Layers[1:] {
		for _, in := range layer.Inputs {
			if in > i {
				t.Fatalf("layer %d consumes later layer %d", i+1, in)
			}
		}
	}
}

func TestMaterializeResidualInputs(t *testing.T) {
	sp := NewCnn2D(nil, 0)
	rng := newRNG(2)
	for i := 0; i < 300; i++ {
		g := sp.Random(rng)
		spec := sp.Model(g)
		for _, layer := range spec.Layers {
			if layer.Kind == "add" && len(layer.Inputs) != 2 {
				t.Fatalf("add layer with %d inputs", len(layer.Inputs))
			}
		}
	}
}
