package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned by implementations when the cache backend
// cannot be reached. Callers treat it as a miss on the read path and as a
// logged, non-fatal condition on the write path: a cache failure must never
// fail an operation the store has already acknowledged.
var ErrUnavailable = errors.New("cache unavailable")

// Cache is a minimal byte store with per-entry TTLs.
//
// Implementations must be byte-for-byte transparent: Get must return exactly
// the []byte previously passed to Set for the same key, with no prepended
// metadata or re-encoding. Misses are not errors: Get reports a miss as
// (nil, false, nil) and reserves the error return for transport failures.
type Cache interface {
	// Get returns (value, true, nil) on a hit and (nil, false, nil) on a
	// miss. A non-nil error indicates an IO or backend failure, never a
	// missing key.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key with the given TTL. A non-positive TTL is
	// implementation-defined (backends without per-entry expiry may ignore
	// it entirely).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a key that does not exist is not an
	// error: the caller only cares that the key is absent afterwards.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}
