// Package network assembles fetched OpenAlex records into citation and
// collaboration graphs.
package network

import (
	"github.com/scholarnet/openalex-graph/pkg/client"
	"github.com/scholarnet/openalex-graph/pkg/collab"
	"github.com/scholarnet/openalex-graph/pkg/graph"
)

// PaperNodes converts records into paper node candidates. Ids are
// short-form; titles go into the label and full metadata.
func PaperNodes(records []client.Record) []graph.Node {
	nodes := make([]graph.Node, 0, len(records))
	for _, r := range records {
		title := r.Title
		if title == "" {
			title = "Unknown"
		}
		nodes = append(nodes, graph.Node{
			ID:    client.ShortID(r.ID),
			Label: title,
			Kind:  graph.NodeKindPaper,
			Metadata: map[string]any{
				"title":          title,
				"year":           r.PublicationYear,
				"citation_count": r.CitedByCount,
			},
		})
	}
	return nodes
}

// CitationEdges returns a lazy single-pass edge source over the
// records' reference lists. One candidate is produced per referenced
// work; references pointing outside the record set are discarded
// later, at build time.
func CitationEdges(records []client.Record) graph.EdgeSource {
	recordIdx := 0
	refIdx := 0
	return graph.FuncSource(func() (graph.Edge, bool) {
		for recordIdx < len(records) {
			r := records[recordIdx]
			if refIdx < len(r.ReferencedWorks) {
				ref := r.ReferencedWorks[refIdx]
				refIdx++
				return graph.Edge{
					Source: client.ShortID(r.ID),
					Target: client.ShortID(ref),
					Kind:   graph.EdgeKindCites,
				}, true
			}
			recordIdx++
			refIdx = 0
		}
		return graph.Edge{}, false
	})
}

// AuthorNodes extracts the distinct authors appearing on the records,
// in first-seen order. Ids are short-form.
func AuthorNodes(records []client.Record) []graph.Node {
	seen := make(map[string]bool)
	var nodes []graph.Node
	for _, r := range records {
		for _, a := range r.Authorships {
			id := client.ShortID(a.Author.ID)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true

			label := a.Author.DisplayName
			if label == "" {
				label = "Unknown"
			}
			metadata := map[string]any{
				"name": label,
			}
			if a.Author.ORCID != "" {
				metadata["orcid"] = a.Author.ORCID
			}
			if a.Author.WorksCount > 0 {
				metadata["works_count"] = a.Author.WorksCount
			}
			if a.Author.CitedByCount > 0 {
				metadata["cited_by_count"] = a.Author.CitedByCount
			}
			nodes = append(nodes, graph.Node{
				ID:       id,
				Label:    label,
				Kind:     graph.NodeKindAuthor,
				Metadata: metadata,
			})
		}
	}
	return nodes
}

// CollaborationEdges converts aggregated co-occurrence weights into an
// edge source. Pair ids must match the author node ids.
func CollaborationEdges(weights map[collab.Pair]int) graph.EdgeSource {
	edges := make([]graph.Edge, 0, len(weights))
	for pair, weight := range weights {
		edges = append(edges, graph.Edge{
			Source: pair.A,
			Target: pair.B,
			Kind:   graph.EdgeKindCollaboration,
			Weight: float64(weight),
		})
	}
	return graph.EdgesFromSlice(edges)
}
