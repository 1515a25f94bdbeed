package layout

import (
	"fmt"

	"github.com/psdltools/scenograph/pkg/dag"
)

// AssignRanks computes an integer rank per node using longest-path
// layering: each node's rank is the length of the longest path reaching it
// from any node with no incoming edges. Every edge therefore goes from a
// strictly lower rank to a strictly higher rank.
//
// The traversal is Kahn's algorithm: source nodes start at rank 0, each
// child is pushed to max(parent rank + 1), and in-degree counters drive
// the queue. If the queue drains before every node is processed, the
// remaining nodes form a cycle and AssignRanks returns ErrCycle - it must
// abort rather than loop indefinitely.
//
// An edge referencing an ID absent from nodes returns ErrDanglingEdge.
// Self-loops must be filtered out by the caller before ranking.
func AssignRanks(nodes []*dag.Node, edges []dag.Edge) (map[string]int, error) {
	present := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		present[n.ID] = true
	}

	inDegree := make(map[string]int, len(nodes))
	children := make(map[string][]string, len(nodes))
	for _, e := range edges {
		if !present[e.From] || !present[e.To] {
			return nil, fmt.Errorf("%w: %s -> %s", ErrDanglingEdge, e.From, e.To)
		}
		inDegree[e.To]++
		children[e.From] = append(children[e.From], e.To)
	}

	ranks := make(map[string]int, len(nodes))
	queue := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	processed := 0
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		processed++

		for _, child := range children[curr] {
			if r := ranks[curr] + 1; r > ranks[child] {
				ranks[child] = r
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	if processed < len(nodes) {
		return nil, fmt.Errorf("%w: %d of %d nodes unreachable from any source",
			ErrCycle, len(nodes)-processed, len(nodes))
	}

	for _, n := range nodes {
		if _, ok := ranks[n.ID]; !ok {
			ranks[n.ID] = 0
		}
	}
	return ranks, nil
}
