package space

import (
	"math/rand/v2"

	"micronas/internal/arch"
	"micronas/internal/model"
)

// MLP is the fully-connected search space for tabular classification.
type MLP struct {
	numFeatures int
	numClasses  int
	schema      *arch.Schema
}

func NewMLP(numFeatures, numClasses int) *MLP {
	if numFeatures <= 0 {
		numFeatures = 5
	}
	if numClasses <= 0 {
		numClasses = 5
	}
	return &MLP{
		numFeatures: numFeatures,
		numClasses:  numClasses,
		schema:      mlpSchema(),
	}
}

func mlpSchema() *arch.Schema {
	return &arch.Schema{
		Start:    "input",
		Terminal: "output",
		MaxDepth: 8,
		Ops: map[arch.OpKind]arch.OpSchema{
			"input": {Next: []arch.OpKind{"dense", "output"}},
			"dense": {
				Params: map[string]arch.Domain{"units": {Min: 4, Max: 256, Step: 4}},
				Next:   []arch.OpKind{"dense", "output"},
			},
			"output": {},
		},
	}
}

func (s *MLP) Name() string { return "mlp" }

func (s *MLP) Schema() *arch.Schema { return s.schema }

func (s *MLP) Random(rng *rand.Rand) arch.Graph {
	ops := s.schema.Ops
	var b builder
	cur := b.node("input", nil)

	hidden := 1 + rng.IntN(3)
	for i := 0; i < hidden; i++ {
		dense := b.node("dense", map[string]int{
			"units": sampleDomain(rng, ops["dense"].Params["units"]),
		})
		b.edge(cur, dense)
		cur = dense
	}

	out := b.node("output", nil)
	b.edge(cur, out)
	return b.g
}

func (s *MLP) Morphs(g arch.Graph) []arch.Graph {
	return enumerateMorphs(s.schema, mlpWidthKey, g)
}

func mlpWidthKey(op arch.OpKind) string {
	if op == "dense" {
		return "units"
	}
	return ""
}

func (s *MLP) Model(g arch.Graph) model.NetSpec {
	return materialize(g, []int{s.numFeatures}, s.numClasses, func(op arch.OpKind) string {
		return string(op)
	})
}
