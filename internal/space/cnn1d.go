package space

import (
	"math/rand/v2"

	"micronas/internal/arch"
	"micronas/internal/model"
)

// Cnn1D is the 1D convolutional search space for time-series
// classification: a plain chain of convolution blocks with optional
// pooling, then a dense tail.
type Cnn1D struct {
	inputShape []int
	numClasses int
	schema     *arch.Schema
}

func NewCnn1D(inputShape []int, numClasses int) *Cnn1D {
	if len(inputShape) == 0 {
		inputShape = []int{100, 3}
	}
	if numClasses <= 0 {
		numClasses = 6
	}
	return &Cnn1D{
		inputShape: inputShape,
		numClasses: numClasses,
		schema:     cnn1DSchema(),
	}
}

func cnn1DSchema() *arch.Schema {
	return &arch.Schema{
		Start:    "input",
		Terminal: "output",
		MaxDepth: 10,
		Ops: map[arch.OpKind]arch.OpSchema{
			"input": {Next: []arch.OpKind{"conv"}},
			"conv": {
				Params: map[string]arch.Domain{
					"filters": {Min: 4, Max: 64, Step: 4},
					"kernel":  {Min: 3, Max: 9, Step: 2},
					"stride":  {Min: 1, Max: 2, Step: 1},
				},
				Next: []arch.OpKind{"conv", "maxpool", "dense"},
			},
			"maxpool": {
				Params: map[string]arch.Domain{"pool": {Min: 2, Max: 4, Step: 1}},
				Next:   []arch.OpKind{"conv", "dense"},
			},
			"dense": {
				Params: map[string]arch.Domain{"units": {Min: 16, Max: 256, Step: 16}},
				Next:   []arch.OpKind{"dense", "output"},
			},
			"output": {},
		},
	}
}

func (s *Cnn1D) Name() string { return "cnn1d" }

func (s *Cnn1D) Schema() *arch.Schema { return s.schema }

func (s *Cnn1D) Random(rng *rand.Rand) arch.Graph {
	ops := s.schema.Ops
	var b builder
	cur := b.node("input", nil)

	blocks := 1 + rng.IntN(3)
	for i := 0; i < blocks; i++ {
		conv := b.node("conv", map[string]int{
			"filters": sampleDomain(rng, ops["conv"].Params["filters"]),
			"kernel":  sampleDomain(rng, ops["conv"].Params["kernel"]),
			"stride":  sampleDomain(rng, ops["conv"].Params["stride"]),
		})
		b.edge(cur, conv)
		cur = conv

		if rng.Float64() < 0.5 {
			pool := b.node("maxpool", map[string]int{
				"pool": sampleDomain(rng, ops["maxpool"].Params["pool"]),
			})
			b.edge(cur, pool)
			cur = pool
		}
	}

	denseLayers := 1 + rng.IntN(2)
	for i := 0; i < denseLayers; i++ {
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

func (s *Cnn1D) Morphs(g arch.Graph) []arch.Graph {
	return enumerateMorphs(s.schema, cnn1DWidthKey, g)
}

func cnn1DWidthKey(op arch.OpKind) string {
	switch op {
	case "conv":
		return "filters"
	case "dense":
		return "units"
	default:
		return ""
	}
}

func (s *Cnn1D) Model(g arch.Graph) model.NetSpec {
	return materialize(g, s.inputShape, s.numClasses, func(op arch.OpKind) string {
		switch op {
		case "conv":
			return "conv1d"
		case "maxpool":
			return "maxpool1d"
		default:
			return string(op)
		}
	})
}
