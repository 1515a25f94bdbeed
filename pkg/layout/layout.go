// Package layout computes positions for scenario graphs using classic
// layered (Sugiyama-style) graph drawing.
//
// The engine runs three independently testable pure stages:
//
//  1. [AssignRanks]: longest-path layering via topological sort. Every edge
//     ends up pointing from a strictly lower rank to a strictly higher one.
//  2. [OrderRanks]: iterative barycenter sweeps with transpose refinement
//     to reduce edge crossings, run for a bounded number of passes.
//  3. [AssignCoords]: rank index maps to the primary axis, position within
//     a rank to the secondary axis. Disconnected components are laid out
//     independently and placed side by side.
//
// All stages operate on immutable input collections and return new output
// collections; no stage mutates the input graph. Given identical input the
// result is identical, which keeps re-rendering diff-free.
//
// The builder never emits cycles or dangling edges, so encountering either
// here means an upstream contract was broken: ranking aborts with
// [ErrCycle] rather than looping, and a dangling edge fails fast with
// [ErrDanglingEdge]. Self-loops are dropped with a diagnostic count
// instead of causing failure.
package layout

import (
	"errors"

	"github.com/psdltools/scenograph/pkg/dag"
)

var (
	// ErrCycle reports that rank assignment detected a cycle. The builder
	// never emits one; this is a fatal structural-integrity fault.
	ErrCycle = errors.New("cycle detected during rank assignment")

	// ErrDanglingEdge reports an edge referencing a node ID absent from the
	// node set. Builder and layout share a fully controlled internal
	// boundary, so this is never silently recovered.
	ErrDanglingEdge = errors.New("edge references missing node")
)

// Direction selects the primary layout axis.
type Direction string

const (
	// DirectionTB lays ranks out top to bottom.
	DirectionTB Direction = "TB"
	// DirectionLR lays ranks out left to right.
	DirectionLR Direction = "LR"
)

// Default spacing constants, in the render adapter's coordinate units.
const (
	DefaultNodeWidth   = 172.0
	DefaultNodeHeight  = 48.0
	DefaultRankSpacing = 60.0
	DefaultNodeSpacing = 40.0
)

// orderingPasses bounds the barycenter sweep count. Each pass alternates a
// downward and an upward sweep plus a transpose refinement.
const orderingPasses = 4

// Options configures the layout engine. Zero-valued fields are replaced by
// defaults in [Layout].
type Options struct {
	Direction   Direction
	NodeWidth   float64
	NodeHeight  float64
	RankSpacing float64
	NodeSpacing float64
}

// DefaultOptions returns the standard layout configuration: vertical
// top-to-bottom flow with the default spacing constants.
func DefaultOptions() Options {
	return Options{
		Direction:   DirectionTB,
		NodeWidth:   DefaultNodeWidth,
		NodeHeight:  DefaultNodeHeight,
		RankSpacing: DefaultRankSpacing,
		NodeSpacing: DefaultNodeSpacing,
	}
}

func (o Options) withDefaults() Options {
	if o.Direction == "" {
		o.Direction = DirectionTB
	}
	if o.NodeWidth <= 0 {
		o.NodeWidth = DefaultNodeWidth
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = DefaultNodeHeight
	}
	if o.RankSpacing <= 0 {
		o.RankSpacing = DefaultRankSpacing
	}
	if o.NodeSpacing <= 0 {
		o.NodeSpacing = DefaultNodeSpacing
	}
	return o
}

// Placed is a node with its final top-left-origin position.
// Node is a copy; its Rank field is set to the assigned rank.
type Placed struct {
	Node   dag.Node
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Result holds the positioned graph.
type Result struct {
	// Nodes are the placed nodes, ordered by node ID.
	Nodes []Placed

	// Ranks maps node ID to its assigned rank.
	Ranks map[string]int

	// Orders lists node IDs per rank in final left-to-right order.
	Orders map[int][]string

	// Crossings is the number of edge crossings remaining between
	// consecutive ranks after ordering.
	Crossings int

	// DroppedSelfLoops counts self-loop edges discarded before ranking.
	// Always zero for builder-produced graphs.
	DroppedSelfLoops int
}

// Layout positions every node of g. It never mutates g.
//
// Returns ErrCycle or ErrDanglingEdge on structural-integrity faults; an
// empty graph yields an empty result, not an error.
func Layout(g *dag.Graph, opts Options) (Result, error) {
	opts = opts.withDefaults()

	nodes := g.SortedNodes()
	edges, dropped := splitSelfLoops(g.Edges())

	ranks, err := AssignRanks(nodes, edges)
	if err != nil {
		return Result{}, err
	}

	orders := OrderRanks(nodes, edges, ranks)
	placed := AssignCoords(nodes, edges, ranks, orders, opts)

	return Result{
		Nodes:            placed,
		Ranks:            ranks,
		Orders:           orders,
		Crossings:        CountCrossings(edges, ranks, orders),
		DroppedSelfLoops: dropped,
	}, nil
}

// splitSelfLoops removes edges whose endpoints are the same node.
func splitSelfLoops(edges []dag.Edge) ([]dag.Edge, int) {
	kept := make([]dag.Edge, 0, len(edges))
	dropped := 0
	for _, e := range edges {
		if e.From == e.To {
			dropped++
			continue
		}
		kept = append(kept, e)
	}
	return kept, dropped
}
