package integration

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/scholarnet/openalex-graph/internal/testutil"
	"github.com/scholarnet/openalex-graph/pkg/cache"
	"github.com/scholarnet/openalex-graph/pkg/client"
	"github.com/scholarnet/openalex-graph/pkg/collab"
	"github.com/scholarnet/openalex-graph/pkg/network"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

func cachedClient(t *testing.T, mock *testutil.MockOpenAlex, redisClient *redis.Client, ttl time.Duration) *client.Client {
	t.Helper()

	cfg := client.DefaultConfig("integration@test.com")
	cfg.BaseURL = mock.URL()
	cfg.RateLimit = 1000
	cfg.RequestTimeout = 5 * time.Second
	cfg.Cache = cache.NewManager(redisClient, ttl)

	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return c
}

func sampleWorks() []testutil.Work {
	return []testutil.Work{
		{ID: "W1", Title: "Paper 1", Year: 2020, ReferencedWorks: []string{"W2"}, AuthorIDs: []string{"A1", "A2"}},
		{ID: "W2", Title: "Paper 2", Year: 2021, ReferencedWorks: []string{"W3"}, AuthorIDs: []string{"A1", "A2"}},
		{ID: "W3", Title: "Paper 3", Year: 2022, AuthorIDs: []string{"A3"}},
	}
}

// TestCachedFetchFlow tests the full page flow: cache miss, request,
// cache store, then a repeated fetch served entirely from Redis.
func TestCachedFetchFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockOpenAlex()
	defer mock.Close()
	mock.SetWorks(sampleWorks())

	c := cachedClient(t, mock, redisClient, time.Hour)
	ctx := context.Background()

	records, err := c.Fetch(ctx, "", 100)
	if err != nil {
		t.Fatalf("First fetch failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("after first fetch: requests = %d, want 1", mock.GetRequestCount())
	}

	// Identical fetch: every page comes from the cache.
	records, err = c.Fetch(ctx, "", 100)
	if err != nil {
		t.Fatalf("Second fetch failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records from cache, got %d", len(records))
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("after cached fetch: requests = %d, want 1", mock.GetRequestCount())
	}
}

// TestCacheKeyedByFilter verifies that different queries do not share
// cache entries.
func TestCacheKeyedByFilter(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockOpenAlex()
	defer mock.Close()
	mock.SetWorks(sampleWorks())

	c := cachedClient(t, mock, redisClient, time.Hour)
	ctx := context.Background()

	if _, err := c.Fetch(ctx, "author.id:A1", 100); err != nil {
		t.Fatalf("First fetch failed: %v", err)
	}
	if _, err := c.Fetch(ctx, "author.id:A3", 100); err != nil {
		t.Fatalf("Second fetch failed: %v", err)
	}

	if mock.GetRequestCount() != 2 {
		t.Errorf("distinct filters should not share cache entries: requests = %d, want 2", mock.GetRequestCount())
	}
}

// TestCacheExpiry verifies that expired entries trigger a refetch.
func TestCacheExpiry(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockOpenAlex()
	defer mock.Close()
	mock.SetWorks(sampleWorks())

	c := cachedClient(t, mock, redisClient, 100*time.Millisecond)
	ctx := context.Background()

	if _, err := c.Fetch(ctx, "", 100); err != nil {
		t.Fatalf("First fetch failed: %v", err)
	}

	time.Sleep(200 * time.Millisecond)

	if _, err := c.Fetch(ctx, "", 100); err != nil {
		t.Fatalf("Second fetch failed: %v", err)
	}
	if mock.GetRequestCount() != 2 {
		t.Errorf("expired entry should refetch: requests = %d, want 2", mock.GetRequestCount())
	}
}

// TestNetworkPipelineWithCache runs the citation pipeline end to end
// with page caching enabled.
func TestNetworkPipelineWithCache(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockOpenAlex()
	defer mock.Close()
	mock.SetWorks(sampleWorks())

	c := cachedClient(t, mock, redisClient, time.Hour)
	svc := network.NewService(c, collab.Config{})
	ctx := context.Background()

	g, err := svc.CitationNetwork(ctx, "", 100, 1)
	if err != nil {
		t.Fatalf("Citation network failed: %v", err)
	}
	if g.NodeCount() != 3 || g.EdgeCount() != 2 {
		t.Errorf("expected 3 nodes / 2 edges, got %d / %d", g.NodeCount(), g.EdgeCount())
	}

	requestsAfterFirst := mock.GetRequestCount()

	// Rebuilding the same network consumes cached pages only.
	if _, err := svc.CitationNetwork(ctx, "", 100, 1); err != nil {
		t.Fatalf("Cached rebuild failed: %v", err)
	}
	if mock.GetRequestCount() != requestsAfterFirst {
		t.Errorf("cached rebuild issued %d extra requests", mock.GetRequestCount()-requestsAfterFirst)
	}
}
