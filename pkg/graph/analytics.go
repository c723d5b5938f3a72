package graph

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	gograph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// indexed is an undirected adjacency view of the graph with dense
// int64 node indices, as the analytics algorithms require. Parallel
// cites edges (A cites B and B cites A) collapse into one undirected
// edge, matching how the graph is analyzed as a network.
type indexed struct {
	ug    *simple.UndirectedGraph
	ids   []string
	index map[string]int64
}

func (g *Graph) undirected() *indexed {
	idx := &indexed{
		ug:    simple.NewUndirectedGraph(),
		ids:   make([]string, 0, len(g.order)),
		index: make(map[string]int64, len(g.order)),
	}
	for i, id := range g.order {
		idx.ids = append(idx.ids, id)
		idx.index[id] = int64(i)
		idx.ug.AddNode(simple.Node(int64(i)))
	}
	for _, e := range g.edges {
		f := simple.Node(idx.index[e.Source])
		t := simple.Node(idx.index[e.Target])
		idx.ug.SetEdge(simple.Edge{F: f, T: t})
	}
	return idx
}

// weighted is the weighted undirected view used by modularity-based
// community detection.
func (g *Graph) weighted() (*simple.WeightedUndirectedGraph, []string) {
	wg := simple.NewWeightedUndirectedGraph(0, 0)
	index := make(map[string]int64, len(g.order))
	ids := make([]string, 0, len(g.order))
	for i, id := range g.order {
		index[id] = int64(i)
		ids = append(ids, id)
		wg.AddNode(simple.Node(int64(i)))
	}
	for _, e := range g.edges {
		wg.SetWeightedEdge(simple.WeightedEdge{
			F: simple.Node(index[e.Source]),
			T: simple.Node(index[e.Target]),
			W: e.Weight,
		})
	}
	return wg, ids
}

// edgeCount counts distinct undirected edges, collapsing reciprocal
// cites pairs.
func (idx *indexed) edgeCount() int {
	return idx.ug.Edges().Len()
}

// Density returns 2E / (N(N-1)) over the undirected view, or 0 for
// graphs with fewer than two nodes.
func (g *Graph) Density() float64 {
	n := g.NodeCount()
	if n <= 1 {
		return 0
	}
	e := g.undirected().edgeCount()
	return 2 * float64(e) / (float64(n) * float64(n-1))
}

// AverageDegree returns the mean node degree over the undirected view.
func (g *Graph) AverageDegree() float64 {
	n := g.NodeCount()
	if n == 0 {
		return 0
	}
	e := g.undirected().edgeCount()
	return 2 * float64(e) / float64(n)
}

// Centrality computes a per-node importance score. Supported metrics
// are "degree" (normalized by the maximum observed degree),
// "betweenness", "closeness" and "pagerank". An unknown metric name
// logs a warning and falls back to degree rather than failing.
func (g *Graph) Centrality(metric string) map[string]float64 {
	if g.NodeCount() == 0 {
		return map[string]float64{}
	}

	idx := g.undirected()

	switch metric {
	case "degree", "":
		return idx.degreeCentrality()
	case "betweenness":
		return idx.relabel(network.Betweenness(idx.ug))
	case "closeness":
		paths := path.DijkstraAllPaths(idx.ug)
		return idx.relabel(network.Closeness(idx.ug, paths))
	case "pagerank":
		return idx.pagerank()
	default:
		log.Warn().Str("metric", metric).Msg("Unknown importance metric, using degree")
		return idx.degreeCentrality()
	}
}

func (idx *indexed) degreeCentrality() map[string]float64 {
	degrees := make(map[string]float64, len(idx.ids))
	maxDegree := 0
	for i, id := range idx.ids {
		d := idx.ug.From(int64(i)).Len()
		degrees[id] = float64(d)
		if d > maxDegree {
			maxDegree = d
		}
	}
	if maxDegree == 0 {
		return degrees
	}
	for id := range degrees {
		degrees[id] /= float64(maxDegree)
	}
	return degrees
}

// pagerank runs PageRank over a directed expansion of the undirected
// view, one arc per direction, which is equivalent to PageRank on the
// undirected graph.
func (idx *indexed) pagerank() map[string]float64 {
	dg := simple.NewDirectedGraph()
	for i := range idx.ids {
		dg.AddNode(simple.Node(int64(i)))
	}
	edges := idx.ug.Edges()
	for edges.Next() {
		e := edges.Edge()
		dg.SetEdge(simple.Edge{F: e.From(), T: e.To()})
		dg.SetEdge(simple.Edge{F: e.To(), T: e.From()})
	}
	return idx.relabel(network.PageRank(dg, 0.85, 1e-6))
}

func (idx *indexed) relabel(scores map[int64]float64) map[string]float64 {
	out := make(map[string]float64, len(scores))
	for i, score := range scores {
		out[idx.ids[i]] = score
	}
	return out
}

// ConnectedComponents returns the component count and the size of the
// largest component.
func (g *Graph) ConnectedComponents() (count, largest int) {
	if g.NodeCount() == 0 {
		return 0, 0
	}
	components := topo.ConnectedComponents(g.undirected().ug)
	for _, comp := range components {
		if len(comp) > largest {
			largest = len(comp)
		}
	}
	return len(components), largest
}

// AverageClustering returns the mean local clustering coefficient.
// Nodes with degree below two contribute zero.
func (g *Graph) AverageClustering() float64 {
	n := g.NodeCount()
	if n == 0 {
		return 0
	}

	idx := g.undirected()
	total := 0.0
	for i := range idx.ids {
		neighbors := gograph.NodesOf(idx.ug.From(int64(i)))
		k := len(neighbors)
		if k < 2 {
			continue
		}
		links := 0
		for a := 0; a < k; a++ {
			for b := a + 1; b < k; b++ {
				if idx.ug.HasEdgeBetween(neighbors[a].ID(), neighbors[b].ID()) {
					links++
				}
			}
		}
		total += 2 * float64(links) / (float64(k) * float64(k-1))
	}
	return total / float64(n)
}

// DetectCommunities partitions the graph by greedy modularity
// maximization and returns community labels mapped to sorted member
// id lists. Communities are labeled in decreasing size order. On
// degenerate inputs the result is an empty map, never an error.
func (g *Graph) DetectCommunities() (result map[string][]string) {
	result = map[string][]string{}
	if g.NodeCount() == 0 {
		return result
	}

	// Modularize panics on some degenerate graphs; treat that as "no
	// communities found", matching the empty-map contract.
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("cause", r).Msg("Community detection failed")
			result = map[string][]string{}
		}
	}()

	wg, ids := g.weighted()
	reduced := community.Modularize(wg, 1.0, nil)

	communities := reduced.Communities()
	members := make([][]string, 0, len(communities))
	for _, comm := range communities {
		group := make([]string, 0, len(comm))
		for _, node := range comm {
			group = append(group, ids[node.ID()])
		}
		sort.Strings(group)
		members = append(members, group)
	}
	sort.Slice(members, func(i, j int) bool {
		if len(members[i]) != len(members[j]) {
			return len(members[i]) > len(members[j])
		}
		return members[i][0] < members[j][0]
	})

	for i, group := range members {
		result[fmt.Sprintf("community_%d", i)] = group
	}

	log.Info().Int("communities", len(members)).Msg("Community detection complete")
	return result
}

// Statistics returns summary statistics for the graph. An empty graph
// yields an empty map.
func (g *Graph) Statistics() map[string]float64 {
	if g.NodeCount() == 0 {
		return map[string]float64{}
	}

	components, largest := g.ConnectedComponents()
	return map[string]float64{
		"total_nodes":            float64(g.NodeCount()),
		"total_edges":            float64(g.EdgeCount()),
		"network_density":        g.Density(),
		"avg_degree":             g.AverageDegree(),
		"connected_components":   float64(components),
		"largest_component_size": float64(largest),
		"clustering_coefficient": g.AverageClustering(),
	}
}
