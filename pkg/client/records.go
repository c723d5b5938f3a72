package client

import (
	"strings"
)

// Record is a single work returned by the OpenAlex /works endpoint,
// reduced to the fields the graph pipeline consumes.
type Record struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	PublicationYear int          `json:"publication_year"`
	CitedByCount    int          `json:"cited_by_count"`
	ReferencedWorks []string     `json:"referenced_works"`
	Authorships     []Authorship `json:"authorships"`
}

// Authorship links a work to one of its authors.
type Authorship struct {
	Author Author `json:"author"`
}

// Author is the embedded author object of an authorship.
type Author struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	ORCID        string `json:"orcid"`
	WorksCount   int    `json:"works_count"`
	CitedByCount int    `json:"cited_by_count"`
}

// page is the wire shape of a paginated /works response.
type page struct {
	Results []Record `json:"results"`
	Meta    struct {
		NextCursor string `json:"next_cursor"`
		Count      int    `json:"count"`
	} `json:"meta"`
}

// ShortID reduces a full OpenAlex entity URL to its short form
// (https://openalex.org/W123 -> W123). Short ids pass through unchanged.
func ShortID(id string) string {
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		return id[idx+1:]
	}
	return id
}

// AuthorIDs returns the short-form ids of all authors on the record.
func (r Record) AuthorIDs() []string {
	ids := make([]string, 0, len(r.Authorships))
	for _, a := range r.Authorships {
		if a.Author.ID != "" {
			ids = append(ids, ShortID(a.Author.ID))
		}
	}
	return ids
}

// normalizeRecords drops records without a usable id. Malformed records
// are never an error; they are counted, logged once per fetch, and
// skipped. First-seen order of the survivors is preserved.
func (c *Client) normalizeRecords(records []Record) ([]Record, int) {
	valid := make([]Record, 0, len(records))
	discarded := 0
	for _, r := range records {
		if strings.TrimSpace(r.ID) == "" {
			discarded++
			continue
		}
		valid = append(valid, r)
	}
	if discarded > 0 {
		recordsDiscardedTotal.Add(float64(discarded))
	}
	return valid, discarded
}
