package jobs

import (
	"sort"

	"github.com/rawcontext/engram-sub005/domain/core/entities"
)

// adjacency is an undirected view of the entity graph. Both directions
// of every directed edge are inserted because clustering influence is
// symmetric even though the stored relationship is not.
type adjacency struct {
	neighbors map[string][]string
	order     []string
	edgeCount int
}

func buildAdjacency(edges []entities.EntityEdge) *adjacency {
	sets := make(map[string]map[string]struct{})
	link := func(a, b string) {
		if sets[a] == nil {
			sets[a] = make(map[string]struct{})
		}
		sets[a][b] = struct{}{}
	}
	for _, e := range edges {
		if e.FromID == e.ToID {
			continue
		}
		link(e.FromID, e.ToID)
		link(e.ToID, e.FromID)
	}

	adj := &adjacency{
		neighbors: make(map[string][]string, len(sets)),
		order:     make([]string, 0, len(sets)),
		edgeCount: len(edges),
	}
	for node, set := range sets {
		ns := make([]string, 0, len(set))
		for n := range set {
			ns = append(ns, n)
		}
		sort.Strings(ns)
		adj.neighbors[node] = ns
		adj.order = append(adj.order, node)
	}
	sort.Strings(adj.order)
	return adj
}

// propagateLabels runs synchronous label propagation: every node starts
// with a unique label, then repeatedly adopts the most frequent label
// among its neighbors, ties broken by the lowest label id. The result is
// stable within a run only; maxIterations bounds worst-case cost on
// pathological graphs. Returns the final labels and iterations used.
func propagateLabels(adj *adjacency, maxIterations int) (map[string]int, int) {
	labels := make(map[string]int, len(adj.order))
	for i, node := range adj.order {
		labels[node] = i
	}

	iterations := 0
	for iterations < maxIterations {
		iterations++
		changed := false
		for _, node := range adj.order {
			ns := adj.neighbors[node]
			if len(ns) == 0 {
				continue
			}
			counts := make(map[int]int, len(ns))
			for _, n := range ns {
				counts[labels[n]]++
			}
			best := labels[node]
			bestCount := 0
			for label, count := range counts {
				if count > bestCount || (count == bestCount && label < best) {
					best = label
					bestCount = count
				}
			}
			if best != labels[node] {
				labels[node] = best
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return labels, iterations
}

// clusters groups nodes by final label and drops groups below minSize.
// Members within a group and the groups themselves are sorted so the
// result is deterministic for a given labeling.
func clusters(labels map[string]int, minSize int) [][]string {
	byLabel := make(map[int][]string)
	for node, label := range labels {
		byLabel[label] = append(byLabel[label], node)
	}

	groups := make([][]string, 0, len(byLabel))
	for _, members := range byLabel {
		if len(members) < minSize {
			continue
		}
		sort.Strings(members)
		groups = append(groups, members)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups
}
