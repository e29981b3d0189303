// Package redis implements the cache.Cache interface on top of a Redis
// server using the go-redis client.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/taskvault-api/internal/cache"
	"github.com/phrazzld/taskvault-api/internal/platform/logger"
)

// Config holds the settings for the Redis cache connection.
type Config struct {
	// Addr is the host:port of the Redis server.
	Addr string

	// Password is the optional AUTH password.
	Password string

	// DB is the Redis logical database number.
	DB int

	// DialTimeout, ReadTimeout and WriteTimeout bound individual cache
	// calls. They are kept deliberately small so a stalled cache cannot
	// consume a request's whole deadline; a timed-out call degrades to a
	// miss at the service layer.
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RedisCache implements cache.Cache using a Redis server.
type RedisCache struct {
	client *goredis.Client
	logger *slog.Logger
}

// Ensure RedisCache implements cache.Cache interface
var _ cache.Cache = (*RedisCache)(nil)

// New creates a Redis-backed cache and verifies connectivity with a ping.
// If logger is nil, a default logger will be used.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*RedisCache, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis addr cannot be empty")
	}

	if logger == nil {
		logger = slog.Default()
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		// Close the client we just created; the caller never sees it.
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("failed to close redis client after ping failure",
				slog.String("error", closeErr.Error()))
		}
		return nil, fmt.Errorf("%w: ping failed: %v", cache.ErrUnavailable, err)
	}

	return &RedisCache{
		client: client,
		logger: logger.With(slog.String("component", "redis_cache")),
	}, nil
}

// Get implements cache.Cache.Get. A redis.Nil reply is a miss, not an error.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		log.Warn("redis get failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, false, fmt.Errorf("%w: get %s: %v", cache.ErrUnavailable, key, err)
	}
	return data, true, nil
}

// Set implements cache.Cache.Set. A non-positive TTL stores the entry
// without expiry.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	log := logger.FromContextOrDefault(ctx, c.logger)

	if ttl < 0 {
		ttl = 0
	}

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Warn("redis set failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: set %s: %v", cache.ErrUnavailable, key, err)
	}
	return nil
}

// Delete implements cache.Cache.Delete. Deleting an absent key succeeds.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	log := logger.FromContextOrDefault(ctx, c.logger)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		log.Warn("redis delete failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: delete %s: %v", cache.ErrUnavailable, key, err)
	}
	return nil
}

// Close releases the underlying Redis client. Safe to call more than once.
func (c *RedisCache) Close() error {
	if err := c.client.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
		return err
	}
	return nil
}
