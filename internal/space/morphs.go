package space

import "micronas/internal/arch"

// enumerateMorphs lists every structurally distinct single-step perturbation
// of g that stays valid under s:
//
//   - width: each node carrying the family's width parameter, one domain
//     step up and one step down;
//   - params: each remaining parameter of each node, one step in each
//     direction;
//   - insert: each edge spliced with each operation kind legal between its
//     endpoints, parameters at their domain minimum;
//   - remove: each pass-through node whose reconnection is legal.
//
// Width morphs never change depth; insert and remove never touch sibling
// parameters. The enumeration is a pure function of (s, widthKey, g): the
// same parent always offers the same menu, in the same order. An empty
// result means g is saturated.
func enumerateMorphs(s *arch.Schema, widthKey func(arch.OpKind) string, g arch.Graph) []arch.Graph {
	var out []arch.Graph
	out = append(out, widthMorphs(s, widthKey, g)...)
	out = append(out, paramMorphs(s, widthKey, g)...)
	out = append(out, insertMorphs(s, g)...)
	out = append(out, removeMorphs(s, g)...)
	return out
}

func widthMorphs(s *arch.Schema, widthKey func(arch.OpKind) string, g arch.Graph) []arch.Graph {
	var out []arch.Graph
	for i, node := range g.Nodes {
		key := widthKey(node.Op)
		if key == "" {
			continue
		}
		op, ok := s.Op(node.Op)
		if !ok {
			continue
		}
		domain, ok := op.Params[key]
		if !ok {
			continue
		}
		current := g.Param(i, key)
		if v, ok := domain.Up(current); ok {
			out = append(out, g.WithParam(i, key, v))
		}
		if v, ok := domain.Down(current); ok {
			out = append(out, g.WithParam(i, key, v))
		}
	}
	return out
}

func paramMorphs(s *arch.Schema, widthKey func(arch.OpKind) string, g arch.Graph) []arch.Graph {
	var out []arch.Graph
	for i, node := range g.Nodes {
		op, ok := s.Op(node.Op)
		if !ok {
			continue
		}
		width := widthKey(node.Op)
		for _, key := range op.ParamKeys() {
			if key == width {
				continue
			}
			domain := op.Params[key]
			current := g.Param(i, key)
			if v, ok := domain.Up(current); ok {
				out = append(out, g.WithParam(i, key, v))
			}
			if v, ok := domain.Down(current); ok {
				out = append(out, g.WithParam(i, key, v))
			}
		}
	}
	return out
}

func insertMorphs(s *arch.Schema, g arch.Graph) []arch.Graph {
	var out []arch.Graph
	for ei, e := range g.Edges {
		fromOp, ok := s.Op(g.Nodes[e.From].Op)
		if !ok {
			continue
		}
		toKind := g.Nodes[e.To].Op
		for _, kind := range fromOp.Next {
			op, ok := s.Op(kind)
			if !ok || op.MinIn > 1 {
				continue
			}
			if !s.Allows(kind, toKind) {
				continue
			}
			node := arch.Node{Op: kind}
			if len(op.Params) > 0 {
				node.Params = make(map[string]int, len(op.Params))
				for _, key := range op.ParamKeys() {
					node.Params[key] = op.Params[key].Min
				}
			}
			candidate := g.WithNodeInserted(ei, node)
			if s.MaxDepth > 0 && candidate.Depth() > s.MaxDepth {
				continue
			}
			out = append(out, candidate)
		}
	}
	return out
}

func removeMorphs(s *arch.Schema, g arch.Graph) []arch.Graph {
	source, sink := g.Source(), g.Sink()
	var out []arch.Graph
	for i := range g.Nodes {
		if i == source || i == sink {
			continue
		}
		if g.InDegree(i) != 1 || g.OutDegree(i) != 1 {
			continue
		}
		pred := g.Predecessors(i)[0]
		succ := g.Successors(i)[0]
		if !s.Allows(g.Nodes[pred].Op, g.Nodes[succ].Op) {
			continue
		}
		if g.HasEdge(pred, succ) {
			continue
		}
		out = append(out, g.WithNodeRemoved(i))
	}
	return out
}
