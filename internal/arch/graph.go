package arch

import "sort"

// OpKind names one operation type recognized by a schema.
type OpKind string

// Node is one operation with a parameter assignment drawn from the schema
// domain for its kind.
type Node struct {
	Op     OpKind         `json:"op"`
	Params map[string]int `json:"params,omitempty"`
}

// Edge is a data dependency between two node indices.
type Edge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Graph is a directed acyclic graph of parameterized operations stored as a
// node arena with index-based edges. Graphs are immutable by convention: a
// graph may simultaneously be a population member and a morphism source, so
// every mutation helper returns a new Graph and never edits in place.
// Unaffected node parameter maps are shared between parent and child.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Param returns a node parameter or zero when the key is absent.
func (g Graph) Param(node int, key string) int {
	if node < 0 || node >= len(g.Nodes) {
		return 0
	}
	return g.Nodes[node].Params[key]
}

func (g Graph) shallowClone() Graph {
	nodes := make([]Node, len(g.Nodes))
	copy(nodes, g.Nodes)
	edges := make([]Edge, len(g.Edges))
	copy(edges, g.Edges)
	return Graph{Nodes: nodes, Edges: edges}
}

// WithParam returns a copy of g with one node parameter replaced. Only the
// touched node's parameter map is copied.
func (g Graph) WithParam(node int, key string, value int) Graph {
	next := g.shallowClone()
	params := make(map[string]int, len(next.Nodes[node].Params)+1)
	for k, v := range next.Nodes[node].Params {
		params[k] = v
	}
	params[key] = value
	next.Nodes[node].Params = params
	return next
}

// WithNodeInserted returns a copy of g with node spliced onto the edge at
// edgeIdx: the edge (u,v) becomes (u,n) and (n,v). The new node is appended
// to the arena.
func (g Graph) WithNodeInserted(edgeIdx int, node Node) Graph {
	next := g.shallowClone()
	u, v := next.Edges[edgeIdx].From, next.Edges[edgeIdx].To
	idx := len(next.Nodes)
	next.Nodes = append(next.Nodes, node)
	next.Edges[edgeIdx] = Edge{From: u, To: idx}
	next.Edges = append(next.Edges, Edge{From: idx, To: v})
	return next
}

// WithNodeRemoved returns a copy of g with a pass-through node (in-degree
// and out-degree exactly 1) removed and its predecessor reconnected to its
// successor. Remaining node indices are compacted.
func (g Graph) WithNodeRemoved(node int) Graph {
	var pred, succ = -1, -1
	for _, e := range g.Edges {
		if e.To == node {
			pred = e.From
		}
		if e.From == node {
			succ = e.To
		}
	}

	nodes := make([]Node, 0, len(g.Nodes)-1)
	for i, n := range g.Nodes {
		if i != node {
			nodes = append(nodes, n)
		}
	}
	remap := func(i int) int {
		if i > node {
			return i - 1
		}
		return i
	}
	edges := make([]Edge, 0, len(g.Edges)-1)
	for _, e := range g.Edges {
		if e.From == node || e.To == node {
			continue
		}
		edges = append(edges, Edge{From: remap(e.From), To: remap(e.To)})
	}
	if pred >= 0 && succ >= 0 {
		edges = append(edges, Edge{From: remap(pred), To: remap(succ)})
	}
	return Graph{Nodes: nodes, Edges: edges}
}

// HasEdge reports whether an edge from->to already exists.
func (g Graph) HasEdge(from, to int) bool {
	for _, e := range g.Edges {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}

// InDegree returns the number of incoming edges of a node.
func (g Graph) InDegree(node int) int {
	count := 0
	for _, e := range g.Edges {
		if e.To == node {
			count++
		}
	}
	return count
}

// OutDegree returns the number of outgoing edges of a node.
func (g Graph) OutDegree(node int) int {
	count := 0
	for _, e := range g.Edges {
		if e.From == node {
			count++
		}
	}
	return count
}

// Predecessors returns the sorted node indices feeding into node.
func (g Graph) Predecessors(node int) []int {
	var out []int
	for _, e := range g.Edges {
		if e.To == node {
			out = append(out, e.From)
		}
	}
	sort.Ints(out)
	return out
}

// Successors returns the sorted node indices fed by node.
func (g Graph) Successors(node int) []int {
	var out []int
	for _, e := range g.Edges {
		if e.From == node {
			out = append(out, e.To)
		}
	}
	sort.Ints(out)
	return out
}

// Source returns the unique node with in-degree zero, or -1 when it is not
// unique or absent.
func (g Graph) Source() int {
	found := -1
	for i := range g.Nodes {
		if g.InDegree(i) == 0 {
			if found >= 0 {
				return -1
			}
			found = i
		}
	}
	return found
}

// Sink returns the unique node with out-degree zero, or -1 when it is not
// unique or absent.
func (g Graph) Sink() int {
	found := -1
	for i := range g.Nodes {
		if g.OutDegree(i) == 0 {
			if found >= 0 {
				return -1
			}
			found = i
		}
	}
	return found
}

// TopoOrder returns node indices in a deterministic topological order
// (smallest ready index first). ok is false when the graph has a cycle.
func (g Graph) TopoOrder() (order []int, ok bool) {
	indeg := make([]int, len(g.Nodes))
	for _, e := range g.Edges {
		if e.To >= 0 && e.To < len(indeg) {
			indeg[e.To]++
		}
	}
	order = make([]int, 0, len(g.Nodes))
	done := make([]bool, len(g.Nodes))
	for len(order) < len(g.Nodes) {
		next := -1
		for i := range g.Nodes {
			if !done[i] && indeg[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			return nil, false
		}
		done[next] = true
		order = append(order, next)
		for _, e := range g.Edges {
			if e.From == next {
				indeg[e.To]--
			}
		}
	}
	return order, true
}

// Depth returns the number of nodes on the longest path through the graph,
// or 0 when the graph is cyclic.
func (g Graph) Depth() int {
	order, ok := g.TopoOrder()
	if !ok {
		return 0
	}
	longest := make([]int, len(g.Nodes))
	max := 0
	for _, i := range order {
		longest[i] = 1
		for _, p := range g.Predecessors(i) {
			if longest[p]+1 > longest[i] {
				longest[i] = longest[p] + 1
			}
		}
		if longest[i] > max {
			max = longest[i]
		}
	}
	return max
}
