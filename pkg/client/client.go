// Package client provides the OpenAlex /works client with rate
// limiting, sequential cursor pagination, caching, and retry handling.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/scholarnet/openalex-graph/pkg/cache"
	"github.com/scholarnet/openalex-graph/pkg/ratelimit"
)

// DefaultBaseURL is the public OpenAlex API root.
const DefaultBaseURL = "https://api.openalex.org"

// Prometheus metrics for client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openalex_requests_total",
		Help: "Total OpenAlex requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "openalex_request_duration_seconds",
		Help:    "OpenAlex request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openalex_errors_total",
		Help: "Total OpenAlex errors by class",
	}, []string{"class"})

	recordsDiscardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "openalex_records_discarded_total",
		Help: "Total records dropped during normalization (missing or empty id)",
	})
)

// Client is the OpenAlex API client.
type Client struct {
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the API (default: DefaultBaseURL). Overridable for tests.
	BaseURL string

	// Mailto joins the polite pool (REQUIRED by OpenAlex etiquette).
	Mailto string

	// RateLimit is the request rate in requests per second (polite pool: 10).
	RateLimit int

	// AcquireTimeout bounds the wait for a rate limit grant.
	AcquireTimeout time.Duration

	// RequestTimeout bounds a single HTTP request.
	RequestTimeout time.Duration

	// PerPage is the page size for cursor pagination (API max: 200).
	PerPage int

	// Limiter, when set, is used instead of a client-owned limiter so
	// several clients can share one rate budget.
	Limiter *ratelimit.Limiter

	// Cache, when set, enables Redis page caching. Nil disables caching.
	Cache *cache.Manager
}

// DefaultConfig returns a configuration matching the API's published limits.
func DefaultConfig(mailto string) Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		Mailto:         mailto,
		RateLimit:      10,
		AcquireTimeout: 60 * time.Second,
		RequestTimeout: 30 * time.Second,
		PerPage:        200,
	}
}

// New creates a new OpenAlex client.
func New(cfg Config) (*Client, error) {
	if cfg.Mailto == "" {
		return nil, fmt.Errorf("mailto is required (polite pool)")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 10
	}
	if cfg.PerPage <= 0 || cfg.PerPage > 200 {
		return nil, fmt.Errorf("per_page must be in 1..200 (got %d)", cfg.PerPage)
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = 60 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.NewLimiter(cfg.RateLimit)
	}

	logger := log.With().Str("component", "openalex-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		limiter: limiter,
		cache:   cfg.Cache,
		config:  cfg,
		logger:  logger,
	}, nil
}

// Fetch retrieves up to limit works matching the filter expression,
// driving cursor pagination strictly sequentially. Cursor pagination is
// stateful keyset pagination; two cursors issued concurrently against
// the same query return overlapping pages, so pages are never fetched
// in parallel.
//
// A zero-length result is not an error. Malformed records are dropped
// and counted, never propagated. Transport failures surface only after
// the retry policy is exhausted.
func (c *Client) Fetch(ctx context.Context, filter string, limit int) ([]Record, error) {
	if limit <= 0 {
		return []Record{}, nil
	}

	results := make([]Record, 0, min(limit, c.config.PerPage))
	cursor := "*"
	pageNum := 0
	start := time.Now()

	for cursor != "" && len(results) < limit {
		pageNum++

		p, err := c.fetchPage(ctx, filter, cursor)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", pageNum, err)
		}

		valid, discarded := c.normalizeRecords(p.Results)
		if discarded > 0 {
			c.logger.Warn().
				Int("page", pageNum).
				Int("discarded", discarded).
				Msg("Dropped records without a valid id")
		}

		results = append(results, valid...)
		cursor = p.Meta.NextCursor

		c.logger.Debug().
			Int("page", pageNum).
			Int("page_records", len(valid)).
			Int("accumulated", len(results)).
			Msg("Fetched page")
	}

	if len(results) > limit {
		results = results[:limit]
	}

	c.logger.Info().
		Str("filter", filter).
		Int("records", len(results)).
		Int("pages", pageNum).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return results, nil
}

// fetchPage retrieves a single page, consulting the cache first and
// wrapping the HTTP call in rate limiting and retry logic.
func (c *Client) fetchPage(ctx context.Context, filter, cursor string) (*page, error) {
	cacheKey := cache.Key{
		Endpoint: "/works",
		Filter:   filter,
		PerPage:  c.config.PerPage,
		Cursor:   cursor,
	}

	if c.cache != nil {
		entry, err := c.cache.Get(ctx, cacheKey)
		if err == nil {
			var p page
			if jsonErr := json.Unmarshal(entry.Data, &p); jsonErr == nil {
				c.logger.Debug().Str("cursor", cursor).Msg("Page served from cache")
				return &p, nil
			}
			// Corrupt entry: fall through to a direct request.
			_ = c.cache.Delete(ctx, cacheKey)
		} else if err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Msg("Cache get error")
		}
	}

	params := url.Values{}
	params.Set("mailto", c.config.Mailto)
	params.Set("per_page", strconv.Itoa(c.config.PerPage))
	params.Set("cursor", cursor)
	if filter != "" {
		params.Set("filter", filter)
	}
	reqURL := c.config.BaseURL + "/works?" + params.Encode()

	var body []byte
	var errClass ErrorClass

	retryErr := retryWithBackoff(ctx, func() error {
		// Every attempt pays the rate limit cost, including retries.
		if !c.limiter.Acquire(c.config.AcquireTimeout) {
			// A grant timeout is logged but the request is issued
			// anyway. Under sustained load this can exceed the
			// intended rate.
			c.logger.Warn().Msg("Rate limit grant timed out, issuing request anyway")
		}

		b, status, err := c.doRequest(ctx, reqURL)
		if err != nil {
			errClass = ErrorClassNetwork
			errorsTotal.WithLabelValues(string(errClass)).Inc()
			requestsTotal.WithLabelValues("/works", "network_error").Inc()
			return &APIError{ErrorClass: errClass, Message: "request failed", Err: err}
		}

		requestsTotal.WithLabelValues("/works", strconv.Itoa(status)).Inc()

		if status >= 400 {
			errClass = classifyStatus(status)
			errorsTotal.WithLabelValues(string(errClass)).Inc()
			c.logger.Warn().
				Int("status", status).
				Str("error_class", string(errClass)).
				Msg("OpenAlex request error")
			return &APIError{
				StatusCode: status,
				ErrorClass: errClass,
				Message:    http.StatusText(status),
			}
		}

		body = b
		return nil
	}, func(error) ErrorClass {
		return errClass
	})
	if retryErr != nil {
		return nil, retryErr
	}

	var p page
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, body); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache page")
		}
	}

	return &p, nil
}

// doRequest issues one GET and returns body and status. Transport-level
// failures (timeouts, connection errors) are returned as err.
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, int, error) {
	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues("/works").Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", fmt.Sprintf("openalex-graph (mailto:%s)", c.config.Mailto))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		// Drain so the connection can be reused across retries.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// classifyStatus categorizes an HTTP status for retry and observability.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 500:
		return ErrorClassServer
	case status >= 400:
		return ErrorClassClient
	default:
		return ""
	}
}

// Limiter returns the rate limiter the client is gated by.
func (c *Client) Limiter() *ratelimit.Limiter {
	return c.limiter
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
