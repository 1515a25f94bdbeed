// Package scene defines the serialization formats shared by the CLI, the
// HTTP API, and the renderers.
//
// Two formats exist: Graph carries pure structure (nodes, edges, caveats)
// and Scene adds the geometry computed by the layout engine. Both are
// plain JSON designed for round-trip fidelity: compile → export →
// re-import produces identical results.
package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/psdltools/scenograph/pkg/compile"
	"github.com/psdltools/scenograph/pkg/dag"
	"github.com/psdltools/scenograph/pkg/layout"
)

// =============================================================================
// Graph - Dependency Graph Serialization
// =============================================================================

// Graph is the canonical serialization format for compiled dependency
// graphs. Nodes are sorted by ID for deterministic output.
type Graph struct {
	Scenario string           `json:"scenario,omitempty"`
	Nodes    []Node           `json:"nodes"`
	Edges    []Edge           `json:"edges"`
	Caveats  []compile.Caveat `json:"caveats,omitempty"`
}

// Node is the unified node type for both Graph and Scene. Geometry
// fields are only populated by scenes.
type Node struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Label    string `json:"label,omitempty"`
	Sublabel string `json:"sublabel,omitempty"` // Expression or source detail
	Severity string `json:"severity,omitempty"`
	Operator string `json:"operator,omitempty"` // Gates only

	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// IsGate returns true if this node was synthesized from a combining
// operator rather than declared in the outline.
func (n *Node) IsGate() bool { return n.Kind == string(dag.KindGate) }

// Edge represents a directed dependency edge.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// =============================================================================
// Scene - Positioned Graph
// =============================================================================

// Scene is a graph with geometry attached: every node carries the
// coordinates and box dimensions assigned by the layout engine.
type Scene struct {
	Scenario  string  `json:"scenario,omitempty"`
	Direction string  `json:"direction"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`

	Nodes   []Node           `json:"nodes"`
	Edges   []Edge           `json:"edges"`
	Caveats []compile.Caveat `json:"caveats,omitempty"`

	Crossings        int `json:"crossings"`
	DroppedSelfLoops int `json:"dropped_self_loops,omitempty"`
}

// =============================================================================
// DAG ↔ Graph Conversion
// =============================================================================

// FromCompile converts a compile result to its serialization format.
func FromCompile(scenario string, res compile.Result) Graph {
	nodes := res.Graph.SortedNodes()

	out := Graph{
		Scenario: scenario,
		Nodes:    make([]Node, len(nodes)),
		Edges:    make([]Edge, 0, res.Graph.EdgeCount()),
		Caveats:  res.Caveats,
	}
	for i, n := range nodes {
		out.Nodes[i] = nodeFromDAG(*n)
	}
	for _, e := range res.Graph.Edges() {
		out.Edges = append(out.Edges, Edge{Source: e.From, Target: e.To, Label: e.Label})
	}
	return out
}

// ToDAG rebuilds a dependency graph from its serialized form. Returns an
// error if an edge references an unknown node or a node ID repeats.
func ToDAG(g Graph) (*dag.Graph, error) {
	d := dag.New()
	for _, n := range g.Nodes {
		// The entity name is recovered from the "<kind>:<name>" ID, not the
		// label: a gate's label is its operator token, not its rule name.
		if err := d.AddNode(dag.Node{
			ID:       n.ID,
			Kind:     dag.Kind(n.Kind),
			Name:     strings.TrimPrefix(n.ID, n.Kind+":"),
			Expr:     n.Sublabel,
			Severity: n.Severity,
			Operator: n.Operator,
		}); err != nil {
			return nil, fmt.Errorf("add node %s: %w", n.ID, err)
		}
	}
	for _, e := range g.Edges {
		if err := d.AddEdge(dag.Edge{From: e.Source, To: e.Target, Label: e.Label}); err != nil {
			return nil, fmt.Errorf("add edge %s -> %s: %w", e.Source, e.Target, err)
		}
	}
	return d, nil
}

// FromLayout combines a compile result with its layout into a Scene.
// Frame dimensions are the bounding box of all placed nodes.
func FromLayout(scenario string, res compile.Result, lay layout.Result, dir layout.Direction) Scene {
	s := Scene{
		Scenario:         scenario,
		Direction:        string(dir),
		Nodes:            make([]Node, len(lay.Nodes)),
		Edges:            make([]Edge, 0, res.Graph.EdgeCount()),
		Caveats:          res.Caveats,
		Crossings:        lay.Crossings,
		DroppedSelfLoops: lay.DroppedSelfLoops,
	}

	for i, p := range lay.Nodes {
		n := nodeFromDAG(p.Node)
		n.X, n.Y = p.X, p.Y
		n.Width, n.Height = p.Width, p.Height
		s.Nodes[i] = n

		if right := p.X + p.Width; right > s.Width {
			s.Width = right
		}
		if bottom := p.Y + p.Height; bottom > s.Height {
			s.Height = bottom
		}
	}
	for _, e := range res.Graph.Edges() {
		s.Edges = append(s.Edges, Edge{Source: e.From, Target: e.To, Label: e.Label})
	}
	return s
}

func nodeFromDAG(n dag.Node) Node {
	return Node{
		ID:       n.ID,
		Kind:     string(n.Kind),
		Label:    n.Label(),
		Sublabel: n.Expr,
		Severity: n.Severity,
		Operator: n.Operator,
	}
}

// =============================================================================
// Serialization API
// =============================================================================

// MarshalGraph serializes a Graph to pretty-printed JSON bytes.
func MarshalGraph(g Graph) ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}

// UnmarshalGraph deserializes JSON bytes to a Graph.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, fmt.Errorf("unmarshal graph: %w", err)
	}
	return g, nil
}

// MarshalScene serializes a Scene to pretty-printed JSON bytes.
func MarshalScene(s Scene) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// UnmarshalScene deserializes JSON bytes into a Scene. Validates that
// every edge references a placed node.
func UnmarshalScene(data []byte) (Scene, error) {
	var s Scene
	if err := json.Unmarshal(data, &s); err != nil {
		return Scene{}, fmt.Errorf("unmarshal scene: %w", err)
	}
	known := make(map[string]bool, len(s.Nodes))
	for _, n := range s.Nodes {
		known[n.ID] = true
	}
	for _, e := range s.Edges {
		if !known[e.Source] || !known[e.Target] {
			return Scene{}, fmt.Errorf("edge %s -> %s references unknown node", e.Source, e.Target)
		}
	}
	return s, nil
}

// WriteSceneFile writes a Scene to a JSON file.
func WriteSceneFile(s Scene, path string) error {
	data, err := MarshalScene(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadSceneFile reads a Scene from a JSON file.
func ReadSceneFile(path string) (Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scene{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalScene(data)
}

// WriteGraphFile writes a Graph to a JSON file.
func WriteGraphFile(g Graph, path string) error {
	data, err := MarshalGraph(g)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadGraphFile reads a Graph from a JSON file.
func ReadGraphFile(path string) (Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Graph{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalGraph(data)
}
