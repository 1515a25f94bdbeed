// Package compile turns a validated scenario outline into the typed
// node/edge graph consumed by the layout engine.
//
// Build is a pure function: identical outline content yields identical
// node and edge sets regardless of array ordering in the input, and
// re-invocation on an unchanged outline is a no-op in terms of produced IDs.
//
// Referential integrity is the upstream validator's responsibility. A
// dependency name that resolves to nothing is dropped silently; it is
// never an error at this layer.
package compile

import (
	"github.com/psdltools/scenograph/pkg/dag"
	"github.com/psdltools/scenograph/pkg/outline"
)

// Caveat flags a logic rule whose boolean structure is visualized
// approximately. The flat operator list in the outline does not encode the
// true expression tree, so when a rule mixes more than one distinct
// operator token only the first becomes the gate label. Consumers should
// surface this to the user rather than trust the gate label as the full
// boolean structure.
type Caveat struct {
	Rule      string   `json:"rule"`      // Logic rule name
	Operators []string `json:"operators"` // Distinct operator tokens, in first-seen order
}

// Result is the output of Build: the dependency graph plus any
// approximation caveats. The graph is acyclic by construction.
type Result struct {
	Graph   *dag.Graph
	Caveats []Caveat
}

// index resolves dependency names to node IDs with a single lookup per
// name instead of scanning the three outline collections repeatedly.
type index struct {
	signals map[string]string // name -> node ID
	trends  map[string]string
	logic   map[string]string
}

func buildIndex(o outline.Outline) index {
	idx := index{
		signals: make(map[string]string, len(o.Signals)),
		trends:  make(map[string]string, len(o.Trends)),
		logic:   make(map[string]string, len(o.Logic)),
	}
	for _, s := range o.Signals {
		idx.signals[s.Name] = dag.NodeID(dag.KindSignal, s.Name)
	}
	for _, t := range o.Trends {
		idx.trends[t.Name] = dag.NodeID(dag.KindTrend, t.Name)
	}
	for _, l := range o.Logic {
		idx.logic[l.Name] = dag.NodeID(dag.KindLogic, l.Name)
	}
	return idx
}

// resolveTrendDep resolves a trend dependency: signals first, then trends.
func (idx index) resolveTrendDep(name string) (string, bool) {
	if id, ok := idx.signals[name]; ok {
		return id, true
	}
	if id, ok := idx.trends[name]; ok {
		return id, true
	}
	return "", false
}

// resolveLogicDep resolves a logic dependency: signals, then trends,
// then other logic rules.
func (idx index) resolveLogicDep(name string) (string, bool) {
	if id, ok := idx.resolveTrendDep(name); ok {
		return id, true
	}
	if id, ok := idx.logic[name]; ok {
		return id, true
	}
	return "", false
}

// Build compiles an outline into a dependency graph.
//
// One node is created per signal, trend, and logic entity, keyed
// "<kind>:<name>". Edges follow the resolved dependency lists. Wherever a
// logic rule combines two or more resolvable dependencies with at least one
// supplied operator, an explicit gate node is synthesized between the
// dependencies and the rule, labeled with the first operator token.
//
// An empty outline yields an empty graph, not an error. Build never
// returns an error for unresolvable names; the only failure mode is an
// internal ID collision, which deterministic ID derivation rules out for
// validator-supplied outlines with unique names.
func Build(o outline.Outline) (Result, error) {
	g := dag.New()
	idx := buildIndex(o)

	for _, s := range o.Signals {
		if err := g.AddNode(dag.Node{
			ID:   idx.signals[s.Name],
			Kind: dag.KindSignal,
			Name: s.Name,
		}); err != nil {
			return Result{}, err
		}
	}
	for _, t := range o.Trends {
		if err := g.AddNode(dag.Node{
			ID:   idx.trends[t.Name],
			Kind: dag.KindTrend,
			Name: t.Name,
			Expr: t.Expr,
		}); err != nil {
			return Result{}, err
		}
	}
	for _, l := range o.Logic {
		if err := g.AddNode(dag.Node{
			ID:       idx.logic[l.Name],
			Kind:     dag.KindLogic,
			Name:     l.Name,
			Expr:     l.Expr,
			Severity: l.Severity,
		}); err != nil {
			return Result{}, err
		}
	}

	for _, t := range o.Trends {
		target := idx.trends[t.Name]
		for _, src := range resolveDeps(t.DependsOn, target, idx.resolveTrendDep) {
			if err := g.AddEdge(dag.Edge{From: src, To: target}); err != nil {
				return Result{}, err
			}
		}
	}

	var caveats []Caveat
	for _, l := range o.Logic {
		target := idx.logic[l.Name]
		deps := resolveDeps(l.DependsOn, target, idx.resolveLogicDep)

		if c, ok := ambiguity(l); ok {
			caveats = append(caveats, c)
		}

		switch {
		case len(deps) == 0:
			// No incoming edges.
		case len(deps) == 1 || len(l.Operators) == 0:
			for _, src := range deps {
				if err := g.AddEdge(dag.Edge{From: src, To: target}); err != nil {
					return Result{}, err
				}
			}
		default:
			gateID := dag.NodeID(dag.KindGate, l.Name)
			if err := g.AddNode(dag.Node{
				ID:       gateID,
				Kind:     dag.KindGate,
				Name:     l.Name,
				Operator: l.Operators[0],
			}); err != nil {
				return Result{}, err
			}
			for _, src := range deps {
				if err := g.AddEdge(dag.Edge{From: src, To: gateID}); err != nil {
					return Result{}, err
				}
			}
			if err := g.AddEdge(dag.Edge{From: gateID, To: target, Label: l.Operators[0]}); err != nil {
				return Result{}, err
			}
		}
	}

	return Result{Graph: g, Caveats: caveats}, nil
}

// resolveDeps maps dependency names to node IDs, in first-seen order.
// Unresolvable names, self-references, and repeated names are dropped so a
// dependency listed twice never wires a duplicate edge.
func resolveDeps(names []string, target string, resolve func(string) (string, bool)) []string {
	seen := make(map[string]bool, len(names))
	var ids []string
	for _, name := range names {
		src, ok := resolve(name)
		if !ok || src == target || seen[src] {
			continue
		}
		seen[src] = true
		ids = append(ids, src)
	}
	return ids
}

// ambiguity reports whether a rule mixes more than one distinct operator
// token, in which case the gate label is an approximation.
func ambiguity(l outline.Logic) (Caveat, bool) {
	seen := make(map[string]bool, len(l.Operators))
	var distinct []string
	for _, op := range l.Operators {
		if !seen[op] {
			seen[op] = true
			distinct = append(distinct, op)
		}
	}
	if len(distinct) < 2 {
		return Caveat{}, false
	}
	return Caveat{Rule: l.Name, Operators: distinct}, true
}
