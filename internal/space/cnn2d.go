package space

import (
	"math/rand/v2"

	"micronas/internal/arch"
	"micronas/internal/model"
)

// Cnn2D is the 2D convolutional search space for image classification:
// convolution blocks with optional pooling and at most one residual join,
// followed by a dense tail.
type Cnn2D struct {
	inputShape []int
	numClasses int
	schema     *arch.Schema
}

func NewCnn2D(inputShape []int, numClasses int) *Cnn2D {
	if len(inputShape) == 0 {
		inputShape = []int{32, 32, 3}
	}
	if numClasses <= 0 {
		numClasses = 10
	}
	return &Cnn2D{
		inputShape: inputShape,
		numClasses: numClasses,
		schema:     cnn2DSchema(),
	}
}

func cnn2DSchema() *arch.Schema {
	return &arch.Schema{
		Start:    "input",
		Terminal: "output",
		MaxDepth: 12,
		Ops: map[arch.OpKind]arch.OpSchema{
			"input": {Next: []arch.OpKind{"conv"}},
			"conv": {
				Params: map[string]arch.Domain{
					"filters": {Min: 8, Max: 64, Step: 8},
					"kernel":  {Min: 1, Max: 5, Step: 2},
					"stride":  {Min: 1, Max: 2, Step: 1},
				},
				Next: []arch.OpKind{"conv", "maxpool", "avgpool", "add", "dense"},
			},
			"maxpool": {
				Params: map[string]arch.Domain{"pool": {Min: 2, Max: 3, Step: 1}},
				Next:   []arch.OpKind{"conv", "dense"},
			},
			"avgpool": {
				Params: map[string]arch.Domain{"pool": {Min: 2, Max: 3, Step: 1}},
				Next:   []arch.OpKind{"conv", "dense"},
			},
			"add": {
				MinIn: 2,
				MaxIn: 2,
				Next:  []arch.OpKind{"conv", "maxpool", "avgpool", "dense"},
			},
			"dense": {
				Params: map[string]arch.Domain{"units": {Min: 16, Max: 256, Step: 16}},
				Next:   []arch.OpKind{"dense", "output"},
			},
			"output": {},
		},
	}
}

func (s *Cnn2D) Name() string { return "cnn2d" }

func (s *Cnn2D) Schema() *arch.Schema { return s.schema }

// Random builds a valid architecture by construction: every appended node
// is a legal successor of the current frontier, so no retries are needed.
func (s *Cnn2D) Random(rng *rand.Rand) arch.Graph {
	ops := s.schema.Ops
	var b builder
	cur := b.node("input", nil)

	usedResidual := false
	blocks := 1 + rng.IntN(3)
	for i := 0; i < blocks; i++ {
		conv := b.node("conv", map[string]int{
			"filters": sampleDomain(rng, ops["conv"].Params["filters"]),
			"kernel":  sampleDomain(rng, ops["conv"].Params["kernel"]),
			"stride":  sampleDomain(rng, ops["conv"].Params["stride"]),
		})
		b.edge(cur, conv)
		cur = conv

		if !usedResidual && rng.Float64() < 0.25 {
			branch := b.node("conv", map[string]int{
				"filters": sampleDomain(rng, ops["conv"].Params["filters"]),
				"kernel":  sampleDomain(rng, ops["conv"].Params["kernel"]),
				"stride":  1,
			})
			join := b.node("add", nil)
			b.edge(cur, branch)
			b.edge(branch, join)
			b.edge(cur, join)
			cur = join
			usedResidual = true
		} else if rng.Float64() < 0.5 {
			kind := arch.OpKind("maxpool")
			if rng.Float64() < 0.5 {
				kind = "avgpool"
			}
			pool := b.node(kind, map[string]int{
				"pool": sampleDomain(rng, ops[kind].Params["pool"]),
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

func (s *Cnn2D) Morphs(g arch.Graph) []arch.Graph {
	return enumerateMorphs(s.schema, cnn2DWidthKey, g)
}

func cnn2DWidthKey(op arch.OpKind) string {
	switch op {
	case "conv":
		return "filters"
	case "dense":
		return "units"
	default:
		return ""
	}
}

func (s *Cnn2D) Model(g arch.Graph) model.NetSpec {
	return materialize(g, s.inputShape, s.numClasses, func(op arch.OpKind) string {
		switch op {
		case "conv":
			return "conv2d"
		case "maxpool":
			return "maxpool2d"
		case "avgpool":
			return "avgpool2d"
		default:
			return string(op)
		}
	})
}
