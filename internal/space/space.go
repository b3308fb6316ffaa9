// Package space defines the search spaces the engine explores: a schema per
// architecture family, a correct-by-construction random generator, a
// deterministic morphism enumerator, and the materialization hook used by
// evaluators.
package space

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"micronas/internal/arch"
	"micronas/internal/model"
)

// Space is the only surface the search engine depends on. Random must
// always return a schema-valid graph. Morphs must be a pure function of its
// input: equal graphs yield equal candidate slices, every candidate valid,
// and an empty slice means the architecture is saturated. Model is consumed
// by evaluators only, never by the engine.
type Space interface {
	Name() string
	Schema() *arch.Schema
	Random(rng *rand.Rand) arch.Graph
	Morphs(g arch.Graph) []arch.Graph
	Model(g arch.Graph) model.NetSpec
}

// New resolves a search space by name.
func New(name string) (Space, error) {
	switch name {
	case "cnn2d":
		return NewCnn2D(nil, 0), nil
	case "cnn1d":
		return NewCnn1D(nil, 0), nil
	case "mlp":
		return NewMLP(0, 0), nil
	default:
		return nil, fmt.Errorf("unknown search space: %s", name)
	}
}

// Names lists the built-in search spaces.
func Names() []string {
	return []string{"cnn1d", "cnn2d", "mlp"}
}

// materialize flattens a graph into a NetSpec: layers in topological order,
// join inputs rewritten to layer indices.
func materialize(g arch.Graph, inputShape []int, numClasses int, kindOf func(arch.OpKind) string) model.NetSpec {
	order, ok := g.TopoOrder()
	if !ok {
		return model.NetSpec{InputShape: inputShape, NumClasses: numClasses}
	}
	pos := make(map[int]int, len(order))
	layers := make([]model.LayerSpec, 0, len(order))
	for li, ni := range order {
		pos[ni] = li
		n := g.Nodes[ni]
		layer := model.LayerSpec{
			Kind:    kindOf(n.Op),
			Filters: n.Params["filters"],
			Kernel:  n.Params["kernel"],
			Stride:  n.Params["stride"],
			Pool:    n.Params["pool"],
			Units:   n.Params["units"],
		}
		preds := g.Predecessors(ni)
		if len(preds) > 0 {
			layer.Inputs = make([]int, 0, len(preds))
			for _, p := range preds {
				layer.Inputs = append(layer.Inputs, pos[p])
			}
			sort.Ints(layer.Inputs)
		}
		layers = append(layers, layer)
	}
	return model.NetSpec{InputShape: inputShape, NumClasses: numClasses, Layers: layers}
}

// sampleDomain draws a uniform value from a stepped parameter domain.
func sampleDomain(rng *rand.Rand, d arch.Domain) int {
	values := d.Values()
	return values[rng.IntN(len(values))]
}

// builder accumulates nodes and edges during random generation.
type builder struct {
	g arch.Graph
}

func (b *builder) node(op arch.OpKind, params map[string]int) int {
	b.g.Nodes = append(b.g.Nodes, arch.Node{Op: op, Params: params})
	return len(b.g.Nodes) - 1
}

func (b *builder) edge(from, to int) {
	b.g.Edges = append(b.g.Edges, arch.Edge{From: from, To: to})
}
