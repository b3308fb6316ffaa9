package arch

import "sort"

// Domain is an inclusive stepped integer range of legal parameter values.
type Domain struct {
	Min  int `json:"min"`
	Max  int `json:"max"`
	Step int `json:"step"`
}

func (d Domain) step() int {
	if d.Step <= 0 {
		return 1
	}
	return d.Step
}

// Contains reports whether v lies on the domain grid.
func (d Domain) Contains(v int) bool {
	if v < d.Min || v > d.Max {
		return false
	}
	return (v-d.Min)%d.step() == 0
}

// Values enumerates the domain grid in ascending order.
func (d Domain) Values() []int {
	var out []int
	for v := d.Min; v <= d.Max; v += d.step() {
		out = append(out, v)
	}
	return out
}

// Up returns the next value one step above v, if still inside the domain.
func (d Domain) Up(v int) (int, bool) {
	next := v + d.step()
	if !d.Contains(next) {
		return 0, false
	}
	return next, true
}

// Down returns the value one step below v, if still inside the domain.
func (d Domain) Down(v int) (int, bool) {
	prev := v - d.step()
	if !d.Contains(prev) {
		return 0, false
	}
	return prev, true
}

// OpSchema declares the legal parameter domains and adjacency of one
// operation kind. Next is ordered; generators rely on that order for
// deterministic enumeration. A zero MaxIn means in-degree exactly one;
// join kinds set MinIn and MaxIn above one.
type OpSchema struct {
	Params map[string]Domain `json:"params,omitempty"`
	Next   []OpKind          `json:"next,omitempty"`
	MinIn  int               `json:"min_in,omitempty"`
	MaxIn  int               `json:"max_in,omitempty"`
}

func (o OpSchema) inBounds() (min, max int) {
	min, max = o.MinIn, o.MaxIn
	if min <= 0 {
		min = 1
	}
	if max <= 0 {
		max = 1
	}
	return min, max
}

// ParamKeys returns the schema parameter names in sorted order.
func (o OpSchema) ParamKeys() []string {
	keys := make([]string, 0, len(o.Params))
	for k := range o.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Schema is the declarative ruleset one architecture family validates
// against: per-kind parameter domains, adjacency, and structural limits.
// Every graph produced or accepted during a run validates against exactly
// one Schema instance.
type Schema struct {
	Ops      map[OpKind]OpSchema `json:"ops"`
	Start    OpKind              `json:"start"`
	Terminal OpKind              `json:"terminal"`
	MaxDepth int                 `json:"max_depth"`
}

// Op looks up the schema entry for a kind.
func (s *Schema) Op(kind OpKind) (OpSchema, bool) {
	op, ok := s.Ops[kind]
	return op, ok
}

// Allows reports whether an edge from kind `from` to kind `to` is legal.
func (s *Schema) Allows(from, to OpKind) bool {
	op, ok := s.Ops[from]
	if !ok {
		return false
	}
	for _, kind := range op.Next {
		if kind == to {
			return true
		}
	}
	return false
}

// Kinds returns all operation kinds in sorted order.
func (s *Schema) Kinds() []OpKind {
	kinds := make([]OpKind, 0, len(s.Ops))
	for kind := range s.Ops {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
