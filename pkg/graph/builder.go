package graph

import (
	"sort"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for graph construction.
var (
	graphNodesDiscardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "graph_nodes_discarded_total",
		Help: "Node candidates discarded during graph builds (empty id or duplicate)",
	})

	graphEdgesDiscardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "graph_edges_discarded_total",
		Help: "Edge candidates discarded during graph builds (malformed or unknown endpoint)",
	})
)

// pairKey is the canonical accumulator key for an edge. Collaboration
// edges are undirected, so their endpoints are sorted; cites edges
// keep their direction.
type pairKey struct {
	a, b string
	kind EdgeKind
}

func canonicalKey(e Edge) pairKey {
	a, b := e.Source, e.Target
	if e.Kind == EdgeKindCollaboration && b < a {
		a, b = b, a
	}
	return pairKey{a: a, b: b, kind: e.Kind}
}

type edgeAccum struct {
	weight   float64
	metadata map[string]any
}

// Build materializes a graph from a finite node sequence and a lazy
// edge-candidate stream.
//
// Nodes are validated and deduplicated in one pass: candidates with an
// empty id are discarded, and for duplicate ids the first occurrence
// wins. Labels are capped per node kind. The edge source is then
// consumed exactly once; candidates with a missing endpoint, a
// self-loop, a negative weight, or an endpoint outside the validated
// node set are discarded without affecting other pairs. Surviving
// candidates merge into a weight accumulator keyed by canonical
// endpoint pair, and pairs reaching minWeight are materialized as
// edges. A candidate weight of zero counts as one occurrence.
//
// Nodes with no surviving incident edge are retained, so NodeCount
// reflects the validated input regardless of minWeight.
func Build(nodes []Node, edges EdgeSource, minWeight float64) *Graph {
	logger := log.With().Str("component", "graph-builder").Logger()
	start := time.Now()

	g := New()
	discardedNodes := 0
	duplicateNodes := 0

	for _, n := range nodes {
		if n.ID == "" {
			discardedNodes++
			continue
		}
		if g.HasNode(n.ID) {
			duplicateNodes++
			continue
		}
		n.Label = capLabel(n.Kind, n.Label)
		g.addNode(n)
	}
	graphNodesDiscardedTotal.Add(float64(discardedNodes + duplicateNodes))

	weights := make(map[pairKey]*edgeAccum)
	rawEdges := 0
	discardedEdges := 0

	if edges != nil {
		for {
			e, ok := edges.Next()
			if !ok {
				break
			}
			rawEdges++

			if e.Source == "" || e.Target == "" || e.Source == e.Target || e.Weight < 0 {
				discardedEdges++
				continue
			}
			if !g.HasNode(e.Source) || !g.HasNode(e.Target) {
				discardedEdges++
				continue
			}

			w := e.Weight
			if w == 0 {
				w = 1
			}

			key := canonicalKey(e)
			if acc, ok := weights[key]; ok {
				acc.weight += w
			} else {
				weights[key] = &edgeAccum{weight: w, metadata: e.Metadata}
			}
		}
	}
	graphEdgesDiscardedTotal.Add(float64(discardedEdges))

	// Deterministic edge order keeps JSON output stable across runs.
	keys := make([]pairKey, 0, len(weights))
	for key := range weights {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		if keys[i].b != keys[j].b {
			return keys[i].b < keys[j].b
		}
		return keys[i].kind < keys[j].kind
	})

	for _, key := range keys {
		acc := weights[key]
		if acc.weight < minWeight {
			continue
		}
		g.addEdge(Edge{
			Source:   key.a,
			Target:   key.b,
			Kind:     key.kind,
			Weight:   acc.weight,
			Metadata: acc.metadata,
		})
	}

	logger.Info().
		Int("nodes", g.NodeCount()).
		Int("edges", g.EdgeCount()).
		Int("discarded_nodes", discardedNodes).
		Int("duplicate_nodes", duplicateNodes).
		Int("raw_edges", rawEdges).
		Int("distinct_pairs", len(weights)).
		Int("discarded_edges", discardedEdges).
		Dur("duration", time.Since(start)).
		Msg("Graph build complete")

	return g
}

// capLabel truncates to a character count, never mid-rune, so capped
// labels stay valid UTF-8.
func capLabel(kind NodeKind, label string) string {
	max := MaxPaperLabelLen
	if kind == NodeKindAuthor {
		max = MaxAuthorLabelLen
	}
	if utf8.RuneCountInString(label) <= max {
		return label
	}
	return string([]rune(label)[:max])
}
