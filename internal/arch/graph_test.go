package arch

import (
	"reflect"
	"testing"
)

func chainGraph(kinds ...OpKind) Graph {
	g := Graph{}
	for i, kind := range kinds {
		g.Nodes = append(g.Nodes, Node{Op: kind, Params: map[string]int{}})
		if i > 0 {
			g.Edges = append(g.Edges, Edge{From: i - 1, To: i})
		}
	}
	return g
}

func TestTopoOrderChain(t *testing.T) {
	g := chainGraph("input", "conv", "dense", "output")
	order, ok := g.TopoOrder()
	if !ok {
		t.Fatal("expected acyclic graph")
	}
	if !reflect.DeepEqual(order, []int{0, 1, 2, 3}) {
		t.Fatalf("unexpected topo order: %v", order)
	}
	if g.Depth() != 4 {
		t.Fatalf("expected depth 4, got %d", g.Depth())
	}
}

func TestTopoOrderDetectsCycle(t *testing.T) {
	g := chainGraph("input", "conv", "output")
	g.Edges = append(g.Edges, Edge{From: 2, To: 1})
	if _, ok := g.TopoOrder(); ok {
		t.Fatal("expected cycle detection")
	}
	if g.Depth() != 0 {
		t.Fatalf("expected zero depth for cyclic graph, got %d", g.Depth())
	}
}

func TestWithParamDoesNotMutateParent(t *testing.T) {
	parent := Graph{Nodes: []Node{{Op: "conv", Params: map[string]int{"filters": 8}}}}
	child := parent.WithParam(0, "filters", 16)

	if parent.Nodes[0].Params["filters"] != 8 {
		t.Fatalf("parent mutated: filters=%d", parent.Nodes[0].Params["filters"])
	}
	if child.Nodes[0].Params["filters"] != 16 {
		t.Fatalf("child not updated: filters=%d", child.Nodes[0].Params["filters"])
	}
}

func TestWithNodeInserted(t *testing.T) {
	g := chainGraph("input", "output")
	child := g.WithNodeInserted(0, Node{Op: "conv", Params: map[string]int{"filters": 4}})

	if len(child.Nodes) != 3 || len(child.Edges) != 2 {
		t.Fatalf("unexpected shape: nodes=%d edges=%d", len(child.Nodes), len(child.Edges))
	}
	if child.Nodes[2].Op != "conv" {
		t.Fatalf("expected appended conv node, got %q", child.Nodes[2].Op)
	}
	if !child.HasEdge(0, 2) || !child.HasEdge(2, 1) {
		t.Fatalf("expected splice edges, got %v", child.Edges)
	}
	if len(g.Nodes) != 2 || len(g.Edges) != 1 {
		t.Fatal("parent mutated by insert")
	}
}

func TestWithNodeRemovedReconnects(t *testing.T) {
	g := chainGraph("input", "conv", "output")
	child := g.WithNodeRemoved(1)

	if len(child.Nodes) != 2 || len(child.Edges) != 1 {
		t.Fatalf("unexpected shape: nodes=%d edges=%d", len(child.Nodes), len(child.Edges))
	}
	if !child.HasEdge(0, 1) {
		t.Fatalf("expected reconnect edge, got %v", child.Edges)
	}
	if child.Nodes[0].Op != "input" || child.Nodes[1].Op != "output" {
		t.Fatalf("unexpected nodes after compaction: %v", child.Nodes)
	}
}

func TestSourceAndSink(t *testing.T) {
	g := chainGraph("input", "conv", "output")
	if g.Source() != 0 {
		t.Fatalf("expected source 0, got %d", g.Source())
	}
	if g.Sink() != 2 {
		t.Fatalf("expected sink 2, got %d", g.Sink())
	}

	g.Edges = g.Edges[:1]
	if g.Sink() != -1 {
		t.Fatalf("expected ambiguous sink, got %d", g.Sink())
	}
}

func TestDomainGrid(t *testing.T) {
	d := Domain{Min: 8, Max: 32, Step: 8}
	if !reflect.DeepEqual(d.Values(), []int{8, 16, 24, 32}) {
		t.Fatalf("unexpected values: %v", d.Values())
	}
	if d.Contains(12) {
		t.Fatal("12 is off the grid")
	}
	if v, ok := d.Up(24); !ok || v != 32 {
		t.Fatalf("up(24) = %d,%v", v, ok)
	}
	if _, ok := d.Up(32); ok {
		t.Fatal("up(32) should saturate")
	}
	if v, ok := d.Down(16); !ok || v != 8 {
		t.Fatalf("down(16) = %d,%v", v, ok)
	}
	if _, ok := d.Down(8); ok {
		t.Fatal("down(8) should saturate")
	}
}
