package graph

// EdgeSource is a pull-based stream of edge candidates. Sources are
// finite, single-pass and non-restartable: once Next has returned
// false, every later call also returns false. Build consumes a source
// exactly once.
type EdgeSource interface {
	// Next returns the next edge candidate, or false when the stream
	// is exhausted.
	Next() (Edge, bool)
}

type sliceSource struct {
	edges []Edge
	pos   int
}

// EdgesFromSlice wraps an in-memory edge slice as an EdgeSource.
func EdgesFromSlice(edges []Edge) EdgeSource {
	return &sliceSource{edges: edges}
}

func (s *sliceSource) Next() (Edge, bool) {
	if s.pos >= len(s.edges) {
		return Edge{}, false
	}
	e := s.edges[s.pos]
	s.pos++
	return e, true
}

// FuncSource adapts a pull function to an EdgeSource. The function
// must keep returning false after first reporting exhaustion.
type FuncSource func() (Edge, bool)

func (f FuncSource) Next() (Edge, bool) {
	return f()
}
