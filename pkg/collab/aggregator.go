package collab

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/scholarnet/openalex-graph/pkg/client"
)

// Prometheus metrics for collaboration aggregation.
var (
	batchQueriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collab_batch_queries_total",
		Help: "Total batch-pair queries issued during aggregation",
	})

	batchQueryFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collab_batch_query_failures_total",
		Help: "Batch-pair queries that failed after retries and were skipped",
	})

	pairsDiscoveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collab_pairs_discovered_total",
		Help: "Distinct collaborating author pairs discovered",
	})
)

// Pair is a canonical (sorted) unordered author id pair, usable as a
// map key for co-occurrence weights.
type Pair struct {
	A, B string
}

// NewPair returns the canonical form of an author pair.
func NewPair(a, b string) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// Fetcher is the fetch surface the aggregator drives. *client.Client
// satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, filter string, limit int) ([]client.Record, error)
}

// Config holds aggregator tuning parameters.
type Config struct {
	// MaxRecordsPerBatch caps the records consumed per batch-pair query.
	// When a query matches more works, pagination stops early: a
	// deliberate completeness/latency trade-off, not a correctness
	// guarantee. Smaller values are faster but may miss collaborations
	// of prolific authors.
	MaxRecordsPerBatch int

	// BatchSize overrides the adaptive batch size when positive.
	BatchSize int
}

// DefaultConfig returns the default aggregation tuning.
func DefaultConfig() Config {
	return Config{
		MaxRecordsPerBatch: 2000,
	}
}

// Aggregator accumulates pairwise collaboration weights for an author
// id set using OR-batched works queries.
type Aggregator struct {
	fetcher Fetcher
	config  Config
	logger  zerolog.Logger
}

// NewAggregator creates an aggregator driving the given fetcher.
func NewAggregator(fetcher Fetcher, cfg Config) *Aggregator {
	if cfg.MaxRecordsPerBatch <= 0 {
		cfg.MaxRecordsPerBatch = DefaultConfig().MaxRecordsPerBatch
	}
	return &Aggregator{
		fetcher: fetcher,
		config:  cfg,
		logger:  log.With().Str("component", "collab-aggregator").Logger(),
	}
}

// Aggregate returns co-occurrence weights for every collaborating pair
// of the given author ids. Ids may be full OpenAlex URLs or short
// forms; returned pairs use the ids as given.
//
// Aggregation is best-effort: a batch-pair query that fails after
// retries is logged and skipped, and the remaining pairs still
// contribute. The returned error is non-nil only when the context is
// cancelled, in which case the weights accumulated so far are still
// returned.
func (a *Aggregator) Aggregate(ctx context.Context, ids []string) (map[Pair]int, error) {
	weights := make(map[Pair]int)
	if len(ids) == 0 {
		return weights, nil
	}

	// Filters use short ids; results are reported with the caller's ids.
	shortIDs := make([]string, len(ids))
	fullIDs := make(map[string]string, len(ids))
	for i, id := range ids {
		short := client.ShortID(id)
		shortIDs[i] = short
		fullIDs[short] = id
	}

	batchSize := a.config.BatchSize
	if batchSize <= 0 {
		batchSize = OptimalBatchSize(len(shortIDs))
	}

	partition := NewPartition(shortIDs, batchSize)
	pairs := partition.Pairs()

	sets := make([]map[string]bool, len(partition))
	for i, batch := range partition {
		sets[i] = make(map[string]bool, len(batch))
		for _, id := range batch {
			sets[i][id] = true
		}
	}

	a.logger.Info().
		Int("authors", len(ids)).
		Int("batches", len(partition)).
		Int("batch_size", batchSize).
		Int("batch_queries", len(pairs)).
		Msg("Starting collaboration aggregation")

	start := time.Now()
	failed := 0

	for _, bp := range pairs {
		if err := ctx.Err(); err != nil {
			a.logger.Warn().Err(err).Msg("Aggregation cancelled, returning partial result")
			return weights, err
		}

		filter := client.NewFilter().AnyOf("author.id", partition[bp.A])
		if bp.A != bp.B {
			filter.AnyOf("author.id", partition[bp.B])
		}

		batchQueriesTotal.Inc()
		records, err := a.fetcher.Fetch(ctx, filter.String(), a.config.MaxRecordsPerBatch)
		if err != nil {
			if ctx.Err() != nil {
				return weights, ctx.Err()
			}
			// Best-effort: skip this batch pair, keep the rest.
			batchQueryFailuresTotal.Inc()
			failed++
			a.logger.Warn().
				Err(err).
				Int("batch_a", bp.A).
				Int("batch_b", bp.B).
				Msg("Batch-pair query failed, skipping")
			continue
		}

		if len(records) >= a.config.MaxRecordsPerBatch {
			a.logger.Warn().
				Int("batch_a", bp.A).
				Int("batch_b", bp.B).
				Int("cap", a.config.MaxRecordsPerBatch).
				Msg("Batch-pair query hit record cap, collaborations beyond it are not counted")
		}

		before := len(weights)
		for _, record := range records {
			a.accumulate(weights, record, sets[bp.A], sets[bp.B], bp.A == bp.B, fullIDs)
		}
		pairsDiscoveredTotal.Add(float64(len(weights) - before))
	}

	a.logger.Info().
		Int("pairs", len(weights)).
		Int("failed_queries", failed).
		Dur("duration", time.Since(start)).
		Msg("Collaboration aggregation complete")

	return weights, nil
}

// accumulate counts the record's contribution to pairwise weights.
// Within a batch every unordered member pair co-occurring on the record
// counts once; across batches every (a in A, b in B) pair with a != b
// counts once.
func (a *Aggregator) accumulate(weights map[Pair]int, record client.Record, setA, setB map[string]bool, within bool, fullIDs map[string]string) {
	membersA := intersect(record.AuthorIDs(), setA)

	if within {
		for i := 0; i < len(membersA); i++ {
			for j := i + 1; j < len(membersA); j++ {
				weights[NewPair(fullIDs[membersA[i]], fullIDs[membersA[j]])]++
			}
		}
		return
	}

	membersB := intersect(record.AuthorIDs(), setB)
	for _, ma := range membersA {
		for _, mb := range membersB {
			if ma == mb {
				continue
			}
			weights[NewPair(fullIDs[ma], fullIDs[mb])]++
		}
	}
}

// intersect returns the unique ids present in set, preserving order.
func intersect(ids []string, set map[string]bool) []string {
	var out []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if set[id] && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
