package graph

import (
	"encoding/json"
	"math"
	"testing"
)

func authorNode(id string) Node {
	return Node{ID: id, Label: "Author " + id, Kind: NodeKindAuthor}
}

func collabEdge(a, b string) Edge {
	return Edge{Source: a, Target: b, Kind: EdgeKindCollaboration}
}

// pathGraph builds A1-A2-A3-A4.
func pathGraph() *Graph {
	nodes := []Node{authorNode("A1"), authorNode("A2"), authorNode("A3"), authorNode("A4")}
	edges := []Edge{
		collabEdge("A1", "A2"),
		collabEdge("A2", "A3"),
		collabEdge("A3", "A4"),
	}
	return Build(nodes, EdgesFromSlice(edges), 1)
}

// twoTriangles builds two triangles joined by a single bridge edge.
func twoTriangles() *Graph {
	nodes := []Node{
		authorNode("A1"), authorNode("A2"), authorNode("A3"),
		authorNode("B1"), authorNode("B2"), authorNode("B3"),
	}
	edges := []Edge{
		collabEdge("A1", "A2"), collabEdge("A2", "A3"), collabEdge("A1", "A3"),
		collabEdge("B1", "B2"), collabEdge("B2", "B3"), collabEdge("B1", "B3"),
		collabEdge("A3", "B1"),
	}
	return Build(nodes, EdgesFromSlice(edges), 1)
}

func TestDensity(t *testing.T) {
	t.Run("formula holds exactly", func(t *testing.T) {
		g := pathGraph()
		want := 2 * 3.0 / (4.0 * 3.0)
		if got := g.Density(); got != want {
			t.Errorf("density = %v, want %v", got, want)
		}
	})

	t.Run("small graphs", func(t *testing.T) {
		if got := New().Density(); got != 0 {
			t.Errorf("empty graph density = %v, want 0", got)
		}
		g := Build([]Node{authorNode("A1")}, nil, 1)
		if got := g.Density(); got != 0 {
			t.Errorf("single-node density = %v, want 0", got)
		}
	})

	t.Run("reciprocal citations count once", func(t *testing.T) {
		nodes := []Node{paperNode("W1"), paperNode("W2")}
		g := Build(nodes, EdgesFromSlice([]Edge{
			citesEdge("W1", "W2"),
			citesEdge("W2", "W1"),
		}), 1)
		if got := g.Density(); got != 1.0 {
			t.Errorf("density = %v, want 1.0", got)
		}
	})
}

func TestAverageDegree(t *testing.T) {
	g := pathGraph()
	// Degrees 1, 2, 2, 1.
	if got := g.AverageDegree(); got != 1.5 {
		t.Errorf("average degree = %v, want 1.5", got)
	}
}

func TestCentrality_Degree(t *testing.T) {
	g := pathGraph()
	scores := g.Centrality("degree")

	if len(scores) != 4 {
		t.Fatalf("expected scores for 4 nodes, got %d", len(scores))
	}
	// Max degree is 2, so A2 and A3 normalize to 1 and the endpoints
	// to 0.5.
	if scores["A2"] != 1.0 || scores["A3"] != 1.0 {
		t.Errorf("interior nodes: got %v and %v, want 1.0", scores["A2"], scores["A3"])
	}
	if scores["A1"] != 0.5 || scores["A4"] != 0.5 {
		t.Errorf("endpoints: got %v and %v, want 0.5", scores["A1"], scores["A4"])
	}
}

func TestCentrality_UnknownMetricFallsBackToDegree(t *testing.T) {
	g := pathGraph()
	want := g.Centrality("degree")
	got := g.Centrality("eigenvector")

	for id, score := range want {
		if got[id] != score {
			t.Errorf("node %s: got %v, want degree score %v", id, got[id], score)
		}
	}
}

func TestCentrality_RanksInteriorNodesHigher(t *testing.T) {
	g := pathGraph()
	for _, metric := range []string{"betweenness", "closeness", "pagerank"} {
		t.Run(metric, func(t *testing.T) {
			scores := g.Centrality(metric)
			if len(scores) != 4 {
				t.Fatalf("expected scores for 4 nodes, got %d", len(scores))
			}
			if scores["A2"] <= scores["A1"] {
				t.Errorf("expected interior A2 (%v) to outrank endpoint A1 (%v)", scores["A2"], scores["A1"])
			}
		})
	}
}

func TestCentrality_EmptyGraph(t *testing.T) {
	for _, metric := range []string{"degree", "betweenness", "closeness", "pagerank"} {
		if scores := New().Centrality(metric); len(scores) != 0 {
			t.Errorf("metric %s: expected empty scores, got %v", metric, scores)
		}
	}
}

func TestConnectedComponents(t *testing.T) {
	nodes := []Node{authorNode("A1"), authorNode("A2"), authorNode("A3"), authorNode("A4")}
	g := Build(nodes, EdgesFromSlice([]Edge{
		collabEdge("A1", "A2"),
		collabEdge("A2", "A3"),
	}), 1)

	count, largest := g.ConnectedComponents()
	if count != 2 {
		t.Errorf("expected 2 components, got %d", count)
	}
	if largest != 3 {
		t.Errorf("expected largest component of size 3, got %d", largest)
	}
}

func TestAverageClustering(t *testing.T) {
	t.Run("triangle", func(t *testing.T) {
		nodes := []Node{authorNode("A1"), authorNode("A2"), authorNode("A3")}
		g := Build(nodes, EdgesFromSlice([]Edge{
			collabEdge("A1", "A2"),
			collabEdge("A2", "A3"),
			collabEdge("A1", "A3"),
		}), 1)
		if got := g.AverageClustering(); got != 1.0 {
			t.Errorf("triangle clustering = %v, want 1.0", got)
		}
	})

	t.Run("path has no triangles", func(t *testing.T) {
		if got := pathGraph().AverageClustering(); got != 0 {
			t.Errorf("path clustering = %v, want 0", got)
		}
	})
}

func TestDetectCommunities(t *testing.T) {
	g := twoTriangles()
	communities := g.DetectCommunities()

	if len(communities) == 0 {
		t.Fatal("expected communities on two bridged triangles")
	}

	membership := make(map[string]string)
	for label, members := range communities {
		for _, id := range members {
			if prev, ok := membership[id]; ok {
				t.Errorf("node %s in both %s and %s", id, prev, label)
			}
			membership[id] = label
		}
	}
	if len(membership) != 6 {
		t.Fatalf("expected all 6 nodes assigned, got %d", len(membership))
	}
	if membership["A1"] != membership["A2"] {
		t.Errorf("expected A1 and A2 in the same community")
	}
	if membership["B2"] != membership["B3"] {
		t.Errorf("expected B2 and B3 in the same community")
	}
}

func TestDetectCommunities_EmptyGraph(t *testing.T) {
	if communities := New().DetectCommunities(); len(communities) != 0 {
		t.Errorf("expected empty map, got %v", communities)
	}
}

func TestStatistics(t *testing.T) {
	t.Run("empty graph", func(t *testing.T) {
		if stats := New().Statistics(); len(stats) != 0 {
			t.Errorf("expected empty map, got %v", stats)
		}
	})

	t.Run("path graph", func(t *testing.T) {
		stats := pathGraph().Statistics()
		want := map[string]float64{
			"total_nodes":            4,
			"total_edges":            3,
			"network_density":        0.5,
			"avg_degree":             1.5,
			"connected_components":   1,
			"largest_component_size": 4,
			"clustering_coefficient": 0,
		}
		for key, value := range want {
			if math.Abs(stats[key]-value) > 1e-9 {
				t.Errorf("%s = %v, want %v", key, stats[key], value)
			}
		}
	})
}

func TestToJSON(t *testing.T) {
	data, err := pathGraph().ToJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var doc struct {
		Nodes []struct {
			ID   string `json:"id"`
			Kind string `json:"node_type"`
		} `json:"nodes"`
		Edges []struct {
			Source string  `json:"source"`
			Target string  `json:"target"`
			Kind   string  `json:"edge_type"`
			Weight float64 `json:"weight"`
		} `json:"edges"`
		Metadata struct {
			TotalNodes     int     `json:"total_nodes"`
			TotalEdges     int     `json:"total_edges"`
			NetworkDensity float64 `json:"network_density"`
			AvgDegree      float64 `json:"avg_degree"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if len(doc.Nodes) != 4 || len(doc.Edges) != 3 {
		t.Errorf("expected 4 nodes and 3 edges, got %d and %d", len(doc.Nodes), len(doc.Edges))
	}
	if doc.Nodes[0].ID != "A1" {
		t.Errorf("expected insertion order, first node %s", doc.Nodes[0].ID)
	}
	if doc.Metadata.TotalNodes != 4 || doc.Metadata.TotalEdges != 3 {
		t.Errorf("metadata counts: %+v", doc.Metadata)
	}
	if doc.Metadata.NetworkDensity != 0.5 || doc.Metadata.AvgDegree != 1.5 {
		t.Errorf("metadata statistics: %+v", doc.Metadata)
	}

	t.Run("empty graph serializes arrays", func(t *testing.T) {
		data, err := New().ToJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if string(raw["nodes"]) != "[]" || string(raw["edges"]) != "[]" {
			t.Errorf("expected empty arrays, got nodes=%s edges=%s", raw["nodes"], raw["edges"])
		}
	})
}
