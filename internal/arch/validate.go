package arch

import (
	"errors"
	"fmt"
)

// ErrSchemaViolation marks a graph that breaks its schema. Generators and
// morphism enumerators must never produce one; seeing this error outside a
// deliberately malformed input is an internal defect, not a search outcome.
var ErrSchemaViolation = errors.New("schema violation")

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSchemaViolation, fmt.Sprintf(format, args...))
}

// Validate checks g against s: structural rules (acyclic, connected, single
// source and sink, legal adjacency, in-degree bounds, depth limit) and
// per-node parameter-domain membership.
func Validate(s *Schema, g Graph) error {
	if s == nil {
		return errors.New("schema is required")
	}
	if len(g.Nodes) == 0 {
		return violation("graph has no nodes")
	}

	for i, node := range g.Nodes {
		op, ok := s.Op(node.Op)
		if !ok {
			return violation("node %d: unknown op kind %q", i, node.Op)
		}
		for key := range node.Params {
			if _, ok := op.Params[key]; !ok {
				return violation("node %d (%s): unknown param %q", i, node.Op, key)
			}
		}
		for _, key := range op.ParamKeys() {
			v, ok := node.Params[key]
			if !ok {
				return violation("node %d (%s): missing param %q", i, node.Op, key)
			}
			if !op.Params[key].Contains(v) {
				return violation("node %d (%s): param %s=%d outside domain [%d,%d]/%d",
					i, node.Op, key, v, op.Params[key].Min, op.Params[key].Max, op.Params[key].step())
			}
		}
	}

	seen := make(map[Edge]bool, len(g.Edges))
	for _, e := range g.Edges {
		if e.From < 0 || e.From >= len(g.Nodes) || e.To < 0 || e.To >= len(g.Nodes) {
			return violation("edge %d->%d out of range", e.From, e.To)
		}
		if e.From == e.To {
			return violation("self edge on node %d", e.From)
		}
		if seen[e] {
			return violation("duplicate edge %d->%d", e.From, e.To)
		}
		seen[e] = true
		if !s.Allows(g.Nodes[e.From].Op, g.Nodes[e.To].Op) {
			return violation("illegal adjacency %s->%s (edge %d->%d)",
				g.Nodes[e.From].Op, g.Nodes[e.To].Op, e.From, e.To)
		}
	}

	source := g.Source()
	if source < 0 {
		return violation("graph must have exactly one source")
	}
	sink := g.Sink()
	if sink < 0 {
		return violation("graph must have exactly one sink")
	}
	if len(g.Nodes) == 1 {
		if g.Nodes[source].Op != s.Start && g.Nodes[source].Op != s.Terminal {
			return violation("single node must be a start or terminal kind, got %q", g.Nodes[source].Op)
		}
	} else {
		if g.Nodes[source].Op != s.Start {
			return violation("source must be kind %q, got %q", s.Start, g.Nodes[source].Op)
		}
		if g.Nodes[sink].Op != s.Terminal {
			return violation("sink must be kind %q, got %q", s.Terminal, g.Nodes[sink].Op)
		}
	}

	for i := range g.Nodes {
		if i == source {
			continue
		}
		op := s.Ops[g.Nodes[i].Op]
		min, max := op.inBounds()
		in := g.InDegree(i)
		if in < min || in > max {
			return violation("node %d (%s): in-degree %d outside [%d,%d]", i, g.Nodes[i].Op, in, min, max)
		}
	}

	if _, ok := g.TopoOrder(); !ok {
		return violation("graph has a cycle")
	}

	if !fullyConnected(g, source, sink) {
		return violation("every node must lie on a source-to-sink path")
	}

	if s.MaxDepth > 0 && g.Depth() > s.MaxDepth {
		return violation("depth %d exceeds schema maximum %d", g.Depth(), s.MaxDepth)
	}
	return nil
}

// fullyConnected reports whether every node is reachable from source and
// can reach sink.
func fullyConnected(g Graph, source, sink int) bool {
	fromSource := reach(g, source, false)
	toSink := reach(g, sink, true)
	for i := range g.Nodes {
		if !fromSource[i] || !toSink[i] {
			return false
		}
	}
	return true
}

func reach(g Graph, start int, reverse bool) []bool {
	seen := make([]bool, len(g.Nodes))
	stack := []int{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			continue
		}
		seen[n] = true
		for _, e := range g.Edges {
			if !reverse && e.From == n && !seen[e.To] {
				stack = append(stack, e.To)
			}
			if reverse && e.To == n && !seen[e.From] {
				stack = append(stack, e.From)
			}
		}
	}
	return seen
}
