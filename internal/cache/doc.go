// Package cache defines the byte-cache abstraction used by the service
// layer, the derivation rules for cache keys, and the codecs that
// serialize domain values into cache entries.
//
// The cache is never authoritative: the store owns canonical state and
// every entry carries a bounded TTL. Implementations live under
// internal/platform (redis, memcache) and must be safe for concurrent use.
package cache
