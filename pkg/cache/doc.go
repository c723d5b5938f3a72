// Package cache provides Redis-backed caching of OpenAlex response
// pages.
//
// Every page fetched from the /works endpoint is keyed by its query
// shape (filter expression, pagination cursor, page size) and stored
// as the raw JSON body with a fixed TTL. Re-running the same query
// within the TTL replays pages from Redis instead of spending requests
// against the shared rate budget.
//
// The cache is an optional collaborator: the client treats a nil
// *Manager as "caching disabled" and every cache error degrades to a
// direct request. A cache failure never fails a fetch.
//
// Key format:
//
//	openalex:works:filter=<expr>:per_page=<n>:cursor=<token>
//
// Keys are deterministic for a given query shape, so concurrent
// processes sharing one Redis instance share the cache.
package cache
