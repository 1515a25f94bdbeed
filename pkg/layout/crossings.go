package layout

import (
	"maps"
	"slices"

	"github.com/psdltools/scenograph/pkg/dag"
)

// CountCrossings returns the number of edge crossings between consecutive
// ranks for the given orderings. Edges spanning more than one rank are not
// counted; with longest-path layering they are rare in scenario graphs and
// the metric is only used as an ordering quality signal.
//
// Two edges (u1,v1) and (u2,v2) between the same rank pair cross iff
// pos(u1) < pos(u2) and pos(v1) > pos(v2).
func CountCrossings(edges []dag.Edge, ranks map[string]int, orders map[int][]string) int {
	pos := make(map[string]int)
	for _, ids := range orders {
		maps.Copy(pos, dag.PosMap(ids))
	}

	type span struct{ from, to int }
	byRank := make(map[int][]span)
	for _, e := range edges {
		if ranks[e.To] != ranks[e.From]+1 {
			continue
		}
		byRank[ranks[e.From]] = append(byRank[ranks[e.From]], span{pos[e.From], pos[e.To]})
	}

	crossings := 0
	for _, spans := range byRank {
		slices.SortFunc(spans, func(a, b span) int {
			if a.from != b.from {
				return a.from - b.from
			}
			return a.to - b.to
		})
		for i := 0; i < len(spans); i++ {
			for j := i + 1; j < len(spans); j++ {
				if spans[i].from < spans[j].from && spans[i].to > spans[j].to {
					crossings++
				}
			}
		}
	}
	return crossings
}
