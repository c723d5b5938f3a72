package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks page cache hits.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "openalex_cache_hits_total",
			Help: "Total number of OpenAlex page cache hits",
		},
	)

	// CacheMisses tracks page cache misses.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "openalex_cache_misses_total",
			Help: "Total number of OpenAlex page cache misses",
		},
	)

	// CacheErrors tracks cache operation errors by operation.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openalex_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)

	// CacheBytesWritten tracks the volume of cached page data.
	CacheBytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "openalex_cache_bytes_written_total",
			Help: "Total bytes of page data written to the cache",
		},
	)
)
