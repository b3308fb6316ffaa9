package eval

import (
	"context"
	"fmt"
	"math"

	"micronas/internal/arch"
	"micronas/internal/model"
	"micronas/internal/space"
)

// Surrogate is a deterministic analytic evaluator: it materializes the
// architecture, propagates tensor shapes through the layer list, and
// derives model size, MAC count, and peak working memory directly from the
// shapes. Prediction error is a capacity heuristic, monotonically falling
// with compute so the search has a gradient. It stands in for a real
// trainer at the evaluator boundary, the way built-in environments stand
// in for external ones.
type Surrogate struct {
	space    space.Space
	training TrainingConfig
}

func NewSurrogate(sp space.Space, training TrainingConfig) (*Surrogate, error) {
	if sp == nil {
		return nil, fmt.Errorf("search space is required")
	}
	if err := training.Validate(); err != nil {
		return nil, fmt.Errorf("training config: %w", err)
	}
	return &Surrogate{space: sp, training: training.WithDefaults()}, nil
}

const bytesPerValue = 4

func (s *Surrogate) Evaluate(ctx context.Context, g arch.Graph) (model.Metrics, error) {
	if err := ctx.Err(); err != nil {
		return model.Metrics{}, err
	}
	spec := s.space.Model(g)
	if len(spec.Layers) == 0 {
		return model.Metrics{}, fmt.Errorf("%w: empty network", ErrTraining)
	}

	shapes := make([][]int, len(spec.Layers))
	var params, macs, peak uint64

	for i, layer := range spec.Layers {
		inputs := layer.Inputs
		if len(inputs) == 0 && i > 0 {
			inputs = []int{i - 1}
		}
		inShapes := make([][]int, 0, len(inputs))
		var inTotal uint64
		for _, idx := range inputs {
			inShapes = append(inShapes, shapes[idx])
			inTotal += volume(shapes[idx])
		}

		out, layerParams, layerMACs, err := propagate(layer, inShapes, spec)
		if err != nil {
			return model.Metrics{}, err
		}
		shapes[i] = out
		params += layerParams
		macs += layerMACs

		if working := (inTotal + volume(out)) * bytesPerValue; working > peak {
			peak = working
		}
	}

	capacity := float64(macs) * math.Sqrt(float64(s.training.Epochs)/75.0)
	errRate := 0.05 + 0.9*math.Exp(-capacity/15000.0)

	return model.Metrics{
		Error:     errRate,
		PeakMem:   peak,
		ModelSize: params * bytesPerValue,
		MACs:      macs,
	}, nil
}

func propagate(layer model.LayerSpec, in [][]int, spec model.NetSpec) (out []int, params, macs uint64, err error) {
	switch layer.Kind {
	case "input":
		return append([]int(nil), spec.InputShape...), 0, 0, nil

	case "conv2d":
		h, w, c := dims3(in[0])
		stride := atLeast(layer.Stride, 1)
		oh, ow := ceilDiv(h, stride), ceilDiv(w, stride)
		k := uint64(layer.Kernel)
		params = k*k*uint64(c)*uint64(layer.Filters) + uint64(layer.Filters)
		macs = k * k * uint64(c) * uint64(oh) * uint64(ow) * uint64(layer.Filters)
		return []int{oh, ow, layer.Filters}, params, macs, nil

	case "conv1d":
		l, c := dims2(in[0])
		stride := atLeast(layer.Stride, 1)
		ol := ceilDiv(l, stride)
		k := uint64(layer.Kernel)
		params = k*uint64(c)*uint64(layer.Filters) + uint64(layer.Filters)
		macs = k * uint64(c) * uint64(ol) * uint64(layer.Filters)
		return []int{ol, layer.Filters}, params, macs, nil

	case "maxpool2d", "avgpool2d":
		h, w, c := dims3(in[0])
		pool := atLeast(layer.Pool, 2)
		return []int{ceilDiv(h, pool), ceilDiv(w, pool), c}, 0, 0, nil

	case "maxpool1d":
		l, c := dims2(in[0])
		pool := atLeast(layer.Pool, 2)
		return []int{ceilDiv(l, pool), c}, 0, 0, nil

	case "add":
		if len(in) != 2 {
			return nil, 0, 0, fmt.Errorf("%w: join with %d inputs", ErrTraining, len(in))
		}
		out = joinShapes(in[0], in[1])
		return out, 0, volume(out), nil

	case "dense":
		flat := volume(in[0])
		units := uint64(layer.Units)
		return []int{layer.Units}, flat*units + units, flat * units, nil

	case "output":
		flat := volume(in[0])
		classes := uint64(spec.NumClasses)
		return []int{spec.NumClasses}, flat*classes + classes, flat * classes, nil

	default:
		return nil, 0, 0, fmt.Errorf("%w: unknown layer kind %q", ErrTraining, layer.Kind)
	}
}

// joinShapes merges residual branch shapes elementwise by maximum; width
// morphs may leave branch channel counts unequal.
func joinShapes(a, b []int) []int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		av, bv := 1, 1
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if av > bv {
			out[i] = av
		} else {
			out[i] = bv
		}
	}
	return out
}

func volume(shape []int) uint64 {
	total := uint64(1)
	for _, d := range shape {
		if d <= 0 {
			return 0
		}
		total *= uint64(d)
	}
	if len(shape) == 0 {
		return 0
	}
	return total
}

func dims3(shape []int) (h, w, c int) {
	h, w, c = 1, 1, 1
	if len(shape) > 0 {
		h = shape[0]
	}
	if len(shape) > 1 {
		w = shape[1]
	}
	if len(shape) > 2 {
		c = shape[2]
	}
	return h, w, c
}

func dims2(shape []int) (l, c int) {
	l, c = 1, 1
	if len(shape) > 0 {
		l = shape[0]
	}
	if len(shape) > 1 {
		c = shape[1]
	}
	return l, c
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}

func atLeast(v, floor int) int {
	if v < floor {
		return floor
	}
	return v
}
