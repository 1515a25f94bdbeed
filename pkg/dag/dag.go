// Package dag provides the typed node/edge graph model shared by the
// scenario graph compiler and the layered layout engine.
//
// Nodes represent scenario entities (signals, trends, logic rules) plus the
// synthesized boolean gates that the compiler inserts between a rule and its
// multiple dependencies. The graph is acyclic by construction: signals have
// no dependencies, trends depend only on signals/trends, and logic depends
// only on signals/trends/logic without reference cycles. A cycle therefore
// indicates a broken upstream contract, not bad user input.
//
// The zero value of Graph is not usable - use New. Graph is not safe for
// concurrent use without external synchronization.
package dag

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists. Node IDs must be unique across all kinds.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist in the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when an edge
	// references a node that doesn't exist. This indicates graph corruption.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrGraphHasCycle is returned by [Graph.Validate] when a cycle is
	// detected using depth-first search with white/gray/black coloring.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Kind identifies which scenario entity a node represents.
type Kind string

// Node kinds. Gate nodes are synthesized by the compiler and never appear
// in the outline itself.
const (
	KindSignal Kind = "signal"
	KindTrend  Kind = "trend"
	KindGate   Kind = "gate"
	KindLogic  Kind = "logic"
)

// NodeID derives the unique node identifier for an entity.
// IDs are deterministic: rebuilding the graph from the same outline always
// produces the same IDs.
func NodeID(kind Kind, name string) string {
	return string(kind) + ":" + name
}

// Node represents a vertex in the scenario graph.
type Node struct {
	ID   string // Unique identifier, derived via NodeID
	Kind Kind
	Name string // Entity name from the outline (rule name for gates)

	Expr     string // Expression text (trends and logic)
	Severity string // Severity label (logic only)
	Operator string // Boolean operator token (gates only)

	// Rank is the layer index assigned by the layout engine.
	// Zero until rank assignment runs.
	Rank int
}

// IsGate reports whether the node is a synthesized boolean combinator.
func (n Node) IsGate() bool { return n.Kind == KindGate }

// Label returns the display text for the node: the operator token for
// gates, the entity name otherwise.
func (n Node) Label() string {
	if n.Kind == KindGate {
		return n.Operator
	}
	return n.Name
}

/// Edge represents a directed dependency: From feeds To.
// Label carries an operator token and is only set on the edge
// from a gate to its rule.
type Edge struct {
	From  string
	To    string
	Label string
}

// Graph is a directed acyclic graph of scenario entities.
type Graph struct {
	nodes    map[string]*Node
	edges    []Edge
	outgoing map[string][]string // nodeID -> children IDs
	incoming map[string][]string // nodeID -> parent IDs
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

// AddNode adds a node to the graph.
// Returns ErrInvalidNodeID if the node ID is empty, or ErrDuplicateNodeID
// if a node with the same ID already exists.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	node := &n
	g.nodes[node.ID] = node
	return nil
}

// AddEdge adds a directed edge between two existing nodes.
// Returns ErrUnknownSourceNode or ErrUnknownTargetNode if an endpoint is
// missing. Duplicate edges between the same pair are allowed but the
// compiler never produces them.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], e.To)
	g.incoming[e.To] = append(g.incoming[e.To], e.From)
	return nil
}

// Node returns the node with the given ID and true, or nil and false.
// The returned pointer refers to the actual node, so Rank updates through
// it affect the graph.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in unspecified order.
// Use SortedNodes when deterministic order matters.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	return nodes
}

// SortedNodes returns all nodes ordered by ID.
// This is the canonical deterministic order used for serialization and as
// the tie-break in layout.
func (g *Graph) SortedNodes() []*Node {
	nodes := g.Nodes()
	slices.SortFunc(nodes, func(a, b *Node) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return nodes
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Children returns the IDs of nodes this node has edges to.
// The returned slice is a read-only view.
func (g *Graph) Children(id string) []string { return g.outgoing[id] }

// Parents returns the IDs of nodes that have edges to this node.
// The returned slice is a read-only view.
func (g *Graph) Parents(id string) []string { return g.incoming[id] }

// InDegree returns the number of incoming edges to the node.
func (g *Graph) InDegree(id string) int { return len(g.incoming[id]) }

// Sources returns nodes with no incoming edges, ordered by ID.
// For scenario graphs these are typically the signals.
func (g *Graph) Sources() []*Node {
	var sources []*Node
	for _, n := range g.SortedNodes() {
		if len(g.incoming[n.ID]) == 0 {
			sources = append(sources, n)
		}
	}
	return sources
}

// Validate checks graph integrity and returns nil if valid.
// It verifies that all edges connect existing nodes and that the graph is
// acyclic. Returns ErrInvalidEdgeEndpoint or ErrGraphHasCycle.
//
// Cycle detection runs in O(N+E) time using depth-first search.
func (g *Graph) Validate() error {
	for _, e := range g.edges {
		if _, ok := g.nodes[e.From]; !ok {
			return ErrInvalidEdgeEndpoint
		}
		if _, ok := g.nodes[e.To]; !ok {
			return ErrInvalidEdgeEndpoint
		}
	}
	return g.detectCycles()
}

func (g *Graph) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range g.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
				return
			}
		}
		color[id] = black
	}

	for id := range g.nodes {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}

// PosMap creates a position lookup map from a slice of node IDs.
// The returned map maps each ID to its index in the slice. This is used to
// convert per-rank orderings into fast position lookups for crossing
// calculations.
func PosMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}
