package layout

import (
	"slices"

	"github.com/psdltools/scenograph/pkg/dag"
)

// AssignCoords maps ranks and intra-rank positions to final coordinates.
//
// For vertical (TB) layouts the rank index maps to the y axis
// (y = rank * (nodeHeight + rankSpacing)) and the position within a rank
// to the x axis, spaced by nodeWidth + nodeSpacing and centered per rank;
// horizontal (LR) layouts swap the axes. Output coordinates are the
// top-left origin of each node box.
//
// Weakly connected components are laid out independently and placed side
// by side along the secondary axis, separated by one node spacing, so
// disconnected subgraphs never overlap. Components are ordered by their
// smallest node ID for determinism.
func AssignCoords(nodes []*dag.Node, edges []dag.Edge, ranks map[string]int, orders map[int][]string, opts Options) []Placed {
	opts = opts.withDefaults()

	comp := components(nodes, edges)

	// Group component members per rank, preserving the intra-rank order.
	type rankRow struct {
		rank int
		ids  []string
	}
	compRows := make(map[string][]rankRow)
	for _, r := range sortedRanks(orders) {
		perComp := make(map[string][]string)
		for _, id := range orders[r] {
			c := comp[id]
			perComp[c] = append(perComp[c], id)
		}
		for c, ids := range perComp {
			compRows[c] = append(compRows[c], rankRow{rank: r, ids: ids})
		}
	}

	secExtent, primExtent := opts.NodeWidth, opts.NodeHeight
	if opts.Direction == DirectionLR {
		secExtent, primExtent = opts.NodeHeight, opts.NodeWidth
	}
	step := secExtent + opts.NodeSpacing

	nodeByID := make(map[string]*dag.Node, len(nodes))
	for _, n := range nodes {
		nodeByID[n.ID] = n
	}

	placed := make([]Placed, 0, len(nodes))
	offset := 0.0
	for _, c := range sortedComponents(comp) {
		rows := compRows[c]

		compWidth := 0.0
		for _, row := range rows {
			if w := rowExtent(len(row.ids), secExtent, opts.NodeSpacing); w > compWidth {
				compWidth = w
			}
		}

		for _, row := range rows {
			rowW := rowExtent(len(row.ids), secExtent, opts.NodeSpacing)
			start := offset + (compWidth-rowW)/2
			primary := float64(row.rank) * (primExtent + opts.RankSpacing)

			for i, id := range row.ids {
				n := *nodeByID[id]
				n.Rank = row.rank
				secondary := start + float64(i)*step

				p := Placed{Node: n, Width: opts.NodeWidth, Height: opts.NodeHeight}
				if opts.Direction == DirectionLR {
					p.X, p.Y = primary, secondary
				} else {
					p.X, p.Y = secondary, primary
				}
				placed = append(placed, p)
			}
		}

		if compWidth > 0 {
			offset += compWidth + opts.NodeSpacing
		}
	}

	slices.SortFunc(placed, func(a, b Placed) int {
		if a.Node.ID < b.Node.ID {
			return -1
		}
		if a.Node.ID > b.Node.ID {
			return 1
		}
		return 0
	})
	return placed
}

func rowExtent(n int, extent, spacing float64) float64 {
	if n == 0 {
		return 0
	}
	return float64(n)*extent + float64(n-1)*spacing
}

// components labels each node with the smallest node ID reachable through
// edges in either direction. The label doubles as a deterministic
// component identifier.
func components(nodes []*dag.Node, edges []dag.Edge) map[string]string {
	adj := make(map[string][]string, len(nodes))
	for _, e := range edges {
		adj[e.From] = append(adj[e.From], e.To)
		adj[e.To] = append(adj[e.To], e.From)
	}

	comp := make(map[string]string, len(nodes))
	for _, n := range nodes { // sorted by ID, so the root is the smallest member
		if _, seen := comp[n.ID]; seen {
			continue
		}
		stack := []string{n.ID}
		comp[n.ID] = n.ID
		for len(stack) > 0 {
			curr := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, next := range adj[curr] {
				if _, seen := comp[next]; !seen {
					comp[next] = n.ID
					stack = append(stack, next)
				}
			}
		}
	}
	return comp
}

func sortedComponents(comp map[string]string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, c := range comp {
		if !seen[c] {
			seen[c] = true
			ids = append(ids, c)
		}
	}
	slices.Sort(ids)
	return ids
}

func sortedRanks(orders map[int][]string) []int {
	ranks := make([]int, 0, len(orders))
	for r := range orders {
		ranks = append(ranks, r)
	}
	slices.Sort(ranks)
	return ranks
}
