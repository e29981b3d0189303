// Package memcache implements the cache.Cache interface with an embedded
// in-process store backed by bigcache. It is the zero-infrastructure
// alternative to the Redis backend: useful for local development, tests,
// and single-instance deployments where a shared cache buys nothing.
package memcache

import (
	"context"
	"errors"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/phrazzld/taskvault-api/internal/cache"
)

// Config holds the settings for the embedded cache.
type Config struct {
	// LifeWindow is the global entry lifetime. bigcache does not support
	// per-entry TTLs, so the per-call TTL passed to Set is ignored and
	// every entry lives at most this long. Keep it at or below the
	// configured cache TTL so entries never outlive their intended bound.
	LifeWindow time.Duration

	// CleanWindow is the interval between sweeps of expired entries.
	// Zero disables sweeping; expired entries are then dropped lazily.
	CleanWindow time.Duration

	// HardMaxCacheSizeMB caps memory usage. Zero means unlimited.
	HardMaxCacheSizeMB int
}

// MemoryCache implements cache.Cache on a bigcache instance.
type MemoryCache struct {
	store *bc.BigCache
}

// Ensure MemoryCache implements cache.Cache interface
var _ cache.Cache = (*MemoryCache)(nil)

// New creates an embedded in-process cache.
func New(ctx context.Context, cfg Config) (*MemoryCache, error) {
	if cfg.LifeWindow <= 0 {
		return nil, errors.New("memcache life window must be positive")
	}

	conf := bc.DefaultConfig(cfg.LifeWindow)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}

	store, err := bc.New(ctx, conf)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{store: store}, nil
}

// Get implements cache.Cache.Get.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := c.store.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set implements cache.Cache.Set. The per-call TTL is ignored; the global
// LifeWindow bounds every entry (see Config).
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	return c.store.Set(key, value)
}

// Delete implements cache.Cache.Delete. Deleting an absent key succeeds.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	err := c.store.Delete(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil
	}
	return err
}

// Close releases the underlying bigcache instance.
func (c *MemoryCache) Close() error {
	return c.store.Close()
}
