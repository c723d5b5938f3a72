// Package graph builds citation and collaboration graphs from a finite
// node set and a lazy edge-candidate stream, and computes analytics on
// the result.
//
// Edge candidates are consumed in a single pass and merged into a
// weight accumulator keyed by canonical endpoint pair, so peak memory
// is bounded by the number of distinct surviving edges rather than the
// number of raw edge occurrences.
package graph

// NodeKind distinguishes the entity a node represents.
type NodeKind string

const (
	NodeKindPaper  NodeKind = "paper"
	NodeKindAuthor NodeKind = "author"
)

// EdgeKind distinguishes citation edges from collaboration edges.
// Cites edges are directed; collaboration edges are undirected and
// stored with a canonical sorted endpoint pair.
type EdgeKind string

const (
	EdgeKindCites         EdgeKind = "cites"
	EdgeKindCollaboration EdgeKind = "collaboration"
)

// Display label caps per node kind.
const (
	MaxPaperLabelLen  = 50
	MaxAuthorLabelLen = 30
)

// Node is a graph node. Nodes are immutable once inserted; when the
// input contains duplicate ids the first occurrence wins.
type Node struct {
	ID       string         `json:"id"`
	Label    string         `json:"label"`
	Kind     NodeKind       `json:"node_type"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Edge is a materialized graph edge. Weight is the accumulated
// co-occurrence or citation count across all merged candidates.
type Edge struct {
	Source   string         `json:"source"`
	Target   string         `json:"target"`
	Kind     EdgeKind       `json:"edge_type"`
	Weight   float64        `json:"weight"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Graph is a materialized graph. It is owned exclusively by the build
// call that created it and is not safe for concurrent mutation.
type Graph struct {
	nodes map[string]Node
	order []string
	edges []Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]Node)}
}

func (g *Graph) addNode(n Node) {
	if _, ok := g.nodes[n.ID]; ok {
		return
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
}

func (g *Graph) addEdge(e Edge) {
	g.edges = append(g.edges, e)
}

// NodeCount returns the number of nodes, including isolated ones.
func (g *Graph) NodeCount() int {
	return len(g.order)
}

// EdgeCount returns the number of materialized edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasNode reports whether the graph contains the given node id.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Edges returns all materialized edges.
func (g *Graph) Edges() []Edge {
	return g.edges
}
