// Package ratelimit implements request spacing for the OpenAlex API.
// The polite pool allows at most 10 requests per second; the Limiter
// enforces a minimum interval between consecutive grants so that the
// rate is never exceeded, even across concurrent callers.
package ratelimit

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for rate limiting.
var (
	rateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "openalex_rate_limit_wait_seconds",
		Help:    "Time spent waiting for a rate limit grant",
		Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1, 2},
	})

	rateLimitTimeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "openalex_rate_limit_timeouts_total",
		Help: "Total number of rate limit acquisitions that timed out",
	})
)

// Limiter is a spacing gate: every grant is separated from the previous
// one by at least 1/maxRequestsPerSecond. There is no burst capacity;
// every request pays the full interval cost regardless of quiet periods.
//
// Callers serialize through a single mutex, so the grant sequence is
// globally monotonic. The only shared mutable state is the timestamp of
// the last grant.
type Limiter struct {
	mu          sync.Mutex
	lastGrant   time.Time
	minInterval time.Duration
}

// NewLimiter creates a Limiter for the given request rate.
// maxRequestsPerSecond values below 1 are treated as 1.
func NewLimiter(maxRequestsPerSecond int) *Limiter {
	if maxRequestsPerSecond < 1 {
		maxRequestsPerSecond = 1
	}
	return &Limiter{
		minInterval: time.Second / time.Duration(maxRequestsPerSecond),
	}
}

// MinInterval returns the enforced spacing between grants.
func (l *Limiter) MinInterval() time.Duration {
	return l.minInterval
}

// Acquire blocks until the minimum interval since the last grant has
// elapsed, then records the new grant time and returns true. If the
// required wait would exceed timeout, Acquire returns false immediately
// without sleeping and without recording a grant.
func (l *Limiter) Acquire(timeout time.Duration) bool {
	start := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	sinceLast := now.Sub(l.lastGrant)

	if sinceLast < l.minInterval {
		wait := l.minInterval - sinceLast
		if time.Since(start)+wait > timeout {
			rateLimitTimeoutsTotal.Inc()
			return false
		}
		time.Sleep(wait)
		l.lastGrant = time.Now()
	} else {
		l.lastGrant = now
	}

	rateLimitWaitSeconds.Observe(time.Since(start).Seconds())
	return true
}
