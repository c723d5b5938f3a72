// Command citegraph fetches works from OpenAlex and writes a citation
// or collaboration network as JSON.
//
// Configuration is taken from the environment:
//
//	OPENALEX_MAILTO   contact address for the polite pool (required)
//	OPENALEX_BASE_URL API base URL (default https://api.openalex.org)
//	NETWORK           "citation" or "collaboration" (default citation)
//	FILTER            OpenAlex filter expression (e.g. publication_year:2020-2024)
//	LIMIT             maximum works to fetch (default 200)
//	MIN_WEIGHT        minimum edge weight to materialize (default 1)
//	RATE_LIMIT        requests per second (default 10)
//	REDIS_URL         optional Redis address for page caching
//	CACHE_TTL         page cache TTL (default 1h)
//	OUTPUT            output file, "-" for stdout (default "-")
//	LOG_LEVEL         debug, info, warn or error (default info)
//	LOG_PRETTY        human-readable log output when "true"
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/scholarnet/openalex-graph/pkg/cache"
	"github.com/scholarnet/openalex-graph/pkg/client"
	"github.com/scholarnet/openalex-graph/pkg/collab"
	"github.com/scholarnet/openalex-graph/pkg/graph"
	"github.com/scholarnet/openalex-graph/pkg/logging"
	"github.com/scholarnet/openalex-graph/pkg/network"
)

// result is the document written to OUTPUT.
type result struct {
	Network     json.RawMessage     `json:"network"`
	Statistics  map[string]float64  `json:"statistics"`
	Communities map[string][]string `json:"communities,omitempty"`
}

func main() {
	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: getEnv("LOG_PRETTY", "") == "true",
		Output: os.Stderr,
	})

	mailto := os.Getenv("OPENALEX_MAILTO")
	if mailto == "" {
		logger.Fatal().Msg("OPENALEX_MAILTO is required")
	}

	kind := getEnv("NETWORK", "citation")
	if kind != "citation" && kind != "collaboration" {
		logger.Fatal().Str("network", kind).Msg("NETWORK must be citation or collaboration")
	}

	filter := os.Getenv("FILTER")
	limit := getEnvInt("LIMIT", 200)
	minWeight := getEnvInt("MIN_WEIGHT", 1)

	cfg := client.DefaultConfig(mailto)
	if base := os.Getenv("OPENALEX_BASE_URL"); base != "" {
		cfg.BaseURL = base
	}
	if rps := getEnvInt("RATE_LIMIT", 0); rps > 0 {
		cfg.RateLimit = rps
	}

	ctx := context.Background()

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: redisURL})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Str("addr", redisURL).Msg("Failed to connect to Redis")
		}
		ttl := getEnvDuration("CACHE_TTL", time.Hour)
		cfg.Cache = cache.NewManager(redisClient, ttl)
		logger.Info().Str("addr", redisURL).Dur("ttl", ttl).Msg("Page caching enabled")
	}

	c, err := client.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create client")
	}

	svc := network.NewService(c, collab.Config{})

	var g *graph.Graph
	switch kind {
	case "citation":
		g, err = svc.CitationNetwork(ctx, filter, limit, minWeight)
	case "collaboration":
		g, err = svc.CollaborationNetwork(ctx, filter, limit, minWeight)
	}
	if err != nil {
		logger.Fatal().Err(err).Str("network", kind).Msg("Network build failed")
	}

	doc := result{Statistics: g.Statistics()}
	if doc.Network, err = g.ToJSON(); err != nil {
		logger.Fatal().Err(err).Msg("Serialization failed")
	}
	if kind == "collaboration" {
		doc.Communities = g.DetectCommunities()
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		logger.Fatal().Err(err).Msg("Serialization failed")
	}

	output := getEnv("OUTPUT", "-")
	if output == "-" {
		fmt.Println(string(data))
	} else {
		if err := os.WriteFile(output, data, 0o644); err != nil {
			logger.Fatal().Err(err).Str("path", output).Msg("Failed to write output")
		}
		logger.Info().Str("path", output).Msg("Network written")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
