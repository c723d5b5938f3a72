// Package metrics provides the centralized Prometheus metrics registry
// for the OpenAlex graph pipeline. All metrics are defined in their
// respective packages (client, cache, ratelimit, collab, graph) to
// maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the pipeline.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - openalex_rate_limit_wait_seconds (Histogram): Time spent waiting for a request grant
//   - openalex_rate_limit_timeouts_total (Counter): Acquisitions that timed out
//
// Cache Metrics (pkg/cache):
//   - openalex_cache_hits_total (Counter): Page cache hits
//   - openalex_cache_misses_total (Counter): Page cache misses
//   - openalex_cache_errors_total{operation} (Counter): Cache operation errors
//   - openalex_cache_bytes_written_total (Counter): Bytes of page data written
//
// Request Metrics (pkg/client):
//   - openalex_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - openalex_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - openalex_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//   - openalex_records_discarded_total (Counter): Records dropped during normalization
//
// Retry Metrics (pkg/client):
//   - openalex_retries_total{error_class} (Counter): Retry attempts by error class
//   - openalex_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - openalex_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Aggregation Metrics (pkg/collab):
//   - collab_batch_queries_total (Counter): Batch-pair queries issued
//   - collab_batch_query_failures_total (Counter): Batch-pair queries skipped after retries
//   - collab_pairs_discovered_total (Counter): Distinct collaborating pairs discovered
//
// Graph Build Metrics (pkg/graph):
//   - graph_nodes_discarded_total (Counter): Node candidates discarded during builds
//   - graph_edges_discarded_total (Counter): Edge candidates discarded during builds
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(openalex_cache_hits_total[5m])) /
//   (sum(rate(openalex_cache_hits_total[5m])) + sum(rate(openalex_cache_misses_total[5m])))
//
//   # Request Error Rate
//   rate(openalex_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(openalex_request_duration_seconds_bucket[5m]))
//
//   # Share of aggregation queries skipped
//   rate(collab_batch_query_failures_total[5m]) / rate(collab_batch_queries_total[5m])
