package layout

import (
	"maps"
	"slices"

	"github.com/psdltools/scenograph/pkg/dag"
)

// OrderRanks determines the left-to-right order of nodes within each rank,
// reducing edge crossings with the classic barycenter heuristic: each node
// is pulled toward the average position of its neighbors in adjacent
// sweeps, alternating top-down and bottom-up, followed by a transpose pass
// that swaps adjacent pairs when doing so removes crossings.
//
// The number of passes is bounded, and every tie keeps the current order.
// Combined with the lexicographic-by-ID initial order this makes the
// result deterministic: re-layout of an unchanged graph reproduces the
// same ordering, and differently ordered input arrays converge to the
// same result because node IDs, not declaration order, seed the sweep.
func OrderRanks(nodes []*dag.Node, edges []dag.Edge, ranks map[string]int) map[int][]string {
	orders := make(map[int][]string)
	maxRank := 0
	for _, n := range nodes { // nodes arrive sorted by ID
		r := ranks[n.ID]
		orders[r] = append(orders[r], n.ID)
		if r > maxRank {
			maxRank = r
		}
	}

	parents := make(map[string][]string)
	children := make(map[string][]string)
	for _, e := range edges {
		parents[e.To] = append(parents[e.To], e.From)
		children[e.From] = append(children[e.From], e.To)
	}

	pos := make(map[string]int, len(nodes))
	reindex := func() {
		for _, ids := range orders {
			maps.Copy(pos, dag.PosMap(ids))
		}
	}
	reindex()

	for pass := 0; pass < orderingPasses; pass++ {
		for r := 1; r <= maxRank; r++ {
			sortByBarycenter(orders[r], parents, pos)
			reindex()
		}
		for r := maxRank - 1; r >= 0; r-- {
			sortByBarycenter(orders[r], children, pos)
			reindex()
		}
		if transpose(orders, maxRank, parents, children, pos) == 0 {
			break
		}
	}

	return orders
}

// sortByBarycenter stably reorders ids by the mean position of each node's
// neighbors. Nodes without neighbors keep their current position as their
// barycenter, so they stay put relative to their peers.
func sortByBarycenter(ids []string, neighbors map[string][]string, pos map[string]int) {
	if len(ids) < 2 {
		return
	}

	bary := make(map[string]float64, len(ids))
	for i, id := range ids {
		nbrs := neighbors[id]
		if len(nbrs) == 0 {
			bary[id] = float64(i)
			continue
		}
		sum := 0.0
		for _, nb := range nbrs {
			sum += float64(pos[nb])
		}
		bary[id] = sum / float64(len(nbrs))
	}

	slices.SortStableFunc(ids, func(a, b string) int {
		switch {
		case bary[a] < bary[b]:
			return -1
		case bary[a] > bary[b]:
			return 1
		default:
			return 0
		}
	})
}

// transpose sweeps every rank swapping adjacent pairs whenever the swap
// strictly reduces crossings against both neighboring ranks. Returns the
// number of swaps applied.
func transpose(orders map[int][]string, maxRank int, parents, children map[string][]string, pos map[string]int) int {
	swaps := 0
	for r := 0; r <= maxRank; r++ {
		ids := orders[r]
		for i := 0; i+1 < len(ids); i++ {
			left, right := ids[i], ids[i+1]
			before := pairCrossings(left, right, parents, pos) + pairCrossings(left, right, children, pos)
			after := pairCrossings(right, left, parents, pos) + pairCrossings(right, left, children, pos)
			if after < before {
				ids[i], ids[i+1] = right, left
				pos[left], pos[right] = pos[right], pos[left]
				swaps++
			}
		}
	}
	return swaps
}

// pairCrossings counts crossings between the edges of two nodes assumed to
// sit side by side (left before right), looking at one adjacency direction.
// Two edges cross when left's neighbor sits to the right of right's
// neighbor.
func pairCrossings(left, right string, neighbors map[string][]string, pos map[string]int) int {
	crossings := 0
	for _, ln := range neighbors[left] {
		for _, rn := range neighbors[right] {
			if pos[ln] > pos[rn] {
				crossings++
			}
		}
	}
	return crossings
}
