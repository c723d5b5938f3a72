package graph

import "encoding/json"

type jsonMetadata struct {
	TotalNodes     int     `json:"total_nodes"`
	TotalEdges     int     `json:"total_edges"`
	NetworkDensity float64 `json:"network_density"`
	AvgDegree      float64 `json:"avg_degree"`
}

type jsonDocument struct {
	Nodes    []Node       `json:"nodes"`
	Edges    []Edge       `json:"edges"`
	Metadata jsonMetadata `json:"metadata"`
}

// ToJSON serializes the graph for downstream consumers: node and edge
// lists plus summary metadata. Nodes appear in insertion order.
func (g *Graph) ToJSON() ([]byte, error) {
	doc := jsonDocument{
		Nodes: g.Nodes(),
		Edges: g.edges,
		Metadata: jsonMetadata{
			TotalNodes:     g.NodeCount(),
			TotalEdges:     g.EdgeCount(),
			NetworkDensity: g.Density(),
			AvgDegree:      g.AverageDegree(),
		},
	}
	if doc.Nodes == nil {
		doc.Nodes = []Node{}
	}
	if doc.Edges == nil {
		doc.Edges = []Edge{}
	}
	return json.Marshal(doc)
}
