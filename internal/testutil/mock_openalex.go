// Package testutil provides testing utilities for the OpenAlex graph
// client.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Work is a mock OpenAlex work. AuthorIDs are short-form ids; they are
// expanded to full entity URLs in the serialized response, matching
// what the real API returns.
type Work struct {
	ID              string
	Title           string
	Year            int
	CitedByCount    int
	ReferencedWorks []string
	AuthorIDs       []string
}

// MockOpenAlex is a configurable mock OpenAlex server implementing the
// /works endpoint with filter evaluation and cursor pagination.
type MockOpenAlex struct {
	server *httptest.Server
	mu     sync.Mutex

	works   []Work
	perPage int

	// Failure injection: each queued status is returned once, in order,
	// before normal serving resumes.
	failQueue []int

	// Delay is applied to every request (for timeout testing).
	Delay time.Duration

	// RequestCount is the total number of /works requests served,
	// including injected failures.
	RequestCount int
}

// NewMockOpenAlex creates and starts a mock server.
func NewMockOpenAlex() *MockOpenAlex {
	mock := &MockOpenAlex{}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handleWorks))
	return mock
}

// URL returns the mock server base URL.
func (m *MockOpenAlex) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockOpenAlex) Close() {
	m.server.Close()
}

// SetWorks replaces the dataset served by /works.
func (m *MockOpenAlex) SetWorks(works []Work) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.works = works
}

// FailNext queues n responses with the given status before normal
// serving resumes.
func (m *MockOpenAlex) FailNext(status, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		m.failQueue = append(m.failQueue, status)
	}
}

// Reset clears counters and injected failures, keeping the dataset.
func (m *MockOpenAlex) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.failQueue = nil
}

// GetRequestCount returns the number of /works requests served.
func (m *MockOpenAlex) GetRequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RequestCount
}

func (m *MockOpenAlex) handleWorks(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.RequestCount++
	var failStatus int
	if len(m.failQueue) > 0 {
		failStatus = m.failQueue[0]
		m.failQueue = m.failQueue[1:]
	}
	works := m.works
	delay := m.Delay
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if failStatus != 0 {
		w.WriteHeader(failStatus)
		w.Write([]byte(`{"error": "injected failure"}`))
		return
	}

	query := r.URL.Query()
	matched := filterWorks(works, query.Get("filter"))

	perPage := 25
	if pp := query.Get("per_page"); pp != "" {
		if n, err := strconv.Atoi(pp); err == nil && n > 0 {
			perPage = n
		}
	}

	offset := 0
	cursor := query.Get("cursor")
	if cursor != "" && cursor != "*" {
		if n, err := strconv.Atoi(cursor); err == nil {
			offset = n
		}
	}

	end := offset + perPage
	if end > len(matched) {
		end = len(matched)
	}
	pageWorks := matched[offset:end]

	nextCursor := ""
	if end < len(matched) {
		nextCursor = strconv.Itoa(end)
	}

	results := make([]map[string]any, 0, len(pageWorks))
	for _, work := range pageWorks {
		results = append(results, serializeWork(work))
	}

	resp := map[string]any{
		"results": results,
		"meta": map[string]any{
			"count": len(matched),
		},
	}
	if nextCursor != "" {
		resp["meta"].(map[string]any)["next_cursor"] = nextCursor
	} else {
		resp["meta"].(map[string]any)["next_cursor"] = nil
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// filterWorks evaluates a subset of the OpenAlex filter syntax: clauses
// joined by "," are ANDed; "author.id" and "openalex" clauses match any
// of their "|"-separated values; other clauses match everything.
func filterWorks(works []Work, filter string) []Work {
	if filter == "" {
		return works
	}

	var authorClauses [][]string
	var idClause []string
	for _, clause := range strings.Split(filter, ",") {
		field, value, ok := strings.Cut(clause, ":")
		if !ok {
			continue
		}
		switch field {
		case "author.id":
			authorClauses = append(authorClauses, strings.Split(value, "|"))
		case "openalex":
			idClause = strings.Split(value, "|")
		}
	}

	matched := make([]Work, 0, len(works))
	for _, work := range works {
		if !matchesAuthorClauses(work, authorClauses) {
			continue
		}
		if idClause != nil && !containsID(idClause, work.ID) {
			continue
		}
		matched = append(matched, work)
	}
	return matched
}

func matchesAuthorClauses(work Work, clauses [][]string) bool {
	for _, clause := range clauses {
		found := false
		for _, wanted := range clause {
			for _, have := range work.AuthorIDs {
				if have == shortID(wanted) {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if shortID(candidate) == shortID(id) {
			return true
		}
	}
	return false
}

func shortID(id string) string {
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		return id[idx+1:]
	}
	return id
}

func serializeWork(work Work) map[string]any {
	refs := make([]string, 0, len(work.ReferencedWorks))
	for _, ref := range work.ReferencedWorks {
		refs = append(refs, "https://openalex.org/"+shortID(ref))
	}

	authorships := make([]map[string]any, 0, len(work.AuthorIDs))
	for _, authorID := range work.AuthorIDs {
		authorships = append(authorships, map[string]any{
			"author": map[string]any{
				"id":           "https://openalex.org/" + authorID,
				"display_name": "Author " + authorID,
			},
		})
	}

	// An empty ID stays empty so tests can exercise record discarding.
	id := ""
	if work.ID != "" {
		id = "https://openalex.org/" + shortID(work.ID)
	}

	return map[string]any{
		"id":               id,
		"title":            work.Title,
		"publication_year": work.Year,
		"cited_by_count":   work.CitedByCount,
		"referenced_works": refs,
		"authorships":      authorships,
	}
}
