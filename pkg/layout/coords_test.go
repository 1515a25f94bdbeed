package layout

import (
	"testing"

	"github.com/psdltools/scenograph/pkg/dag"
)

func placedByID(placed []Placed) map[string]Placed {
	m := make(map[string]Placed, len(placed))
	for _, p := range placed {
		m[p.Node.ID] = p
	}
	return m
}

func TestAssignCoordsVertical(t *testing.T) {
	nodes := sortByID(nodesOf("a", "b"))
	edges := []dag.Edge{{From: "a", To: "b"}}
	ranks := map[string]int{"a": 0, "b": 1}
	orders := map[int][]string{0: {"a"}, 1: {"b"}}

	placed := AssignCoords(nodes, edges, ranks, orders, DefaultOptions())
	byID := placedByID(placed)

	if got := byID["a"].Y; got != 0 {
		t.Errorf("a.Y = %v, want 0", got)
	}
	wantY := DefaultNodeHeight + DefaultRankSpacing
	if got := byID["b"].Y; got != wantY {
		t.Errorf("b.Y = %v, want %v", got, wantY)
	}
	// Single-node ranks in one component share the same centered X.
	if byID["a"].X != byID["b"].X {
		t.Errorf("X mismatch: a=%v b=%v, want centered alignment", byID["a"].X, byID["b"].X)
	}
	if byID["a"].Width != DefaultNodeWidth || byID["a"].Height != DefaultNodeHeight {
		t.Errorf("extents = %vx%v, want defaults", byID["a"].Width, byID["a"].Height)
	}
}

func TestAssignCoordsHorizontalSwapsAxes(t *testing.T) {
	nodes := sortByID(nodesOf("a", "b"))
	edges := []dag.Edge{{From: "a", To: "b"}}
	ranks := map[string]int{"a": 0, "b": 1}
	orders := map[int][]string{0: {"a"}, 1: {"b"}}

	opts := DefaultOptions()
	opts.Direction = DirectionLR
	placed := AssignCoords(nodes, edges, ranks, orders, opts)
	byID := placedByID(placed)

	if got := byID["a"].X; got != 0 {
		t.Errorf("a.X = %v, want 0", got)
	}
	wantX := DefaultNodeWidth + DefaultRankSpacing
	if got := byID["b"].X; got != wantX {
		t.Errorf("b.X = %v, want %v", got, wantX)
	}
}

func TestAssignCoordsIntraRankSpacing(t *testing.T) {
	nodes := sortByID(nodesOf("a", "b", "c"))
	edges := []dag.Edge{{From: "a", To: "b"}, {From: "a", To: "c"}}
	ranks := map[string]int{"a": 0, "b": 1, "c": 1}
	orders := map[int][]string{0: {"a"}, 1: {"b", "c"}}

	placed := AssignCoords(nodes, edges, ranks, orders, DefaultOptions())
	byID := placedByID(placed)

	gap := byID["c"].X - byID["b"].X
	if want := DefaultNodeWidth + DefaultNodeSpacing; gap != want {
		t.Errorf("intra-rank gap = %v, want %v", gap, want)
	}

	// Rank 0 is centered over rank 1.
	rankWidth := 2*DefaultNodeWidth + DefaultNodeSpacing
	wantAX := (rankWidth - DefaultNodeWidth) / 2
	if got := byID["a"].X; got != wantAX {
		t.Errorf("a.X = %v, want centered %v", got, wantAX)
	}
}

func TestAssignCoordsDisconnectedComponents(t *testing.T) {
	nodes := sortByID(nodesOf("a", "b", "x", "y"))
	edges := []dag.Edge{{From: "a", To: "b"}, {From: "x", To: "y"}}
	ranks := map[string]int{"a": 0, "b": 1, "x": 0, "y": 1}
	orders := map[int][]string{0: {"a", "x"}, 1: {"b", "y"}}

	placed := AssignCoords(nodes, edges, ranks, orders, DefaultOptions())
	byID := placedByID(placed)

	// The second component starts past the first one's extent.
	if byID["x"].X < byID["a"].X+DefaultNodeWidth {
		t.Errorf("components overlap: a.X=%v x.X=%v", byID["a"].X, byID["x"].X)
	}
	if byID["x"].X != byID["y"].X {
		t.Errorf("second component not aligned: x.X=%v y.X=%v", byID["x"].X, byID["y"].X)
	}
}

func TestLayoutEndToEnd(t *testing.T) {
	g := dag.New()
	for _, id := range []string{"signal:Cr", "trend:cr_delta_48h", "logic:aki_stage1"} {
		g.AddNode(dag.Node{ID: id, Kind: dag.KindSignal, Name: id})
	}
	g.AddEdge(dag.Edge{From: "signal:Cr", To: "trend:cr_delta_48h"})
	g.AddEdge(dag.Edge{From: "trend:cr_delta_48h", To: "logic:aki_stage1"})

	res, err := Layout(g, Options{})
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}

	if len(res.Nodes) != 3 {
		t.Fatalf("placed %d nodes, want 3", len(res.Nodes))
	}
	if res.Ranks["logic:aki_stage1"] != 2 {
		t.Errorf("rank = %d, want 2", res.Ranks["logic:aki_stage1"])
	}
	if res.Crossings != 0 {
		t.Errorf("crossings = %d, want 0", res.Crossings)
	}
	if res.DroppedSelfLoops != 0 {
		t.Errorf("DroppedSelfLoops = %d, want 0", res.DroppedSelfLoops)
	}

	// Placed nodes come back ordered by ID.
	for i := 1; i < len(res.Nodes); i++ {
		if res.Nodes[i-1].Node.ID >= res.Nodes[i].Node.ID {
			t.Errorf("Nodes not sorted by ID: %s >= %s", res.Nodes[i-1].Node.ID, res.Nodes[i].Node.ID)
		}
	}
}

func TestLayoutEmptyGraph(t *testing.T) {
	res, err := Layout(dag.New(), DefaultOptions())
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if len(res.Nodes) != 0 {
		t.Errorf("placed %d nodes, want 0", len(res.Nodes))
	}
}

func TestLayoutDropsSelfLoops(t *testing.T) {
	g := dag.New()
	g.AddNode(dag.Node{ID: "a", Kind: dag.KindLogic, Name: "a"})
	g.AddEdge(dag.Edge{From: "a", To: "a"})

	res, err := Layout(g, DefaultOptions())
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if res.DroppedSelfLoops != 1 {
		t.Errorf("DroppedSelfLoops = %d, want 1", res.DroppedSelfLoops)
	}
	if len(res.Nodes) != 1 {
		t.Errorf("placed %d nodes, want 1", len(res.Nodes))
	}
}

func TestLayoutCycleAborts(t *testing.T) {
	g := dag.New()
	g.AddNode(dag.Node{ID: "a", Kind: dag.KindLogic, Name: "a"})
	g.AddNode(dag.Node{ID: "b", Kind: dag.KindLogic, Name: "b"})
	g.AddEdge(dag.Edge{From: "a", To: "b"})
	g.AddEdge(dag.Edge{From: "b", To: "a"})

	if _, err := Layout(g, DefaultOptions()); err == nil {
		t.Error("Layout should abort on a cyclic graph")
	}
}
