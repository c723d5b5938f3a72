package cache

import (
	"fmt"
	"strings"
)

// Key identifies a cached OpenAlex page by its query shape.
type Key struct {
	// Endpoint is the API path (e.g. "/works").
	Endpoint string

	// Filter is the filter expression sent with the request.
	Filter string

	// PerPage is the requested page size.
	PerPage int

	// Cursor is the pagination cursor for this page ("*" for the first).
	Cursor string
}

// String generates a deterministic cache key string.
//
// Example:
//
//	openalex:works:filter=publication_year:2020-2024:per_page=200:cursor=*
func (k Key) String() string {
	parts := []string{"openalex"}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	parts = append(parts, fmt.Sprintf("filter=%s", k.Filter))
	parts = append(parts, fmt.Sprintf("per_page=%d", k.PerPage))
	parts = append(parts, fmt.Sprintf("cursor=%s", k.Cursor))

	return strings.Join(parts, ":")
}
