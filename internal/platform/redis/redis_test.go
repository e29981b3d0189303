package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsEmptyAddr(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	assert.Error(t, err)
}

// newIntegrationCache connects to the Redis instance named by REDIS_ADDR,
// skipping the test when none is configured.
func newIntegrationCache(t *testing.T) *RedisCache {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping Redis integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := New(ctx, Config{
		Addr:         addr,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, c.Close())
	})
	return c
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	c := newIntegrationCache(t)
	ctx := context.Background()

	// Unique key so concurrent test runs cannot collide.
	key := "task:" + uuid.NewString()
	value := []byte("serialized task bytes")

	require.NoError(t, c.Set(ctx, key, value, time.Minute))

	got, hit, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, value, got)

	require.NoError(t, c.Delete(ctx, key))

	_, hit, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCache_MissIsNotAnError(t *testing.T) {
	c := newIntegrationCache(t)

	got, hit, err := c.Get(context.Background(), "task:"+uuid.NewString())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, got)
}

func TestRedisCache_DeleteAbsentKeySucceeds(t *testing.T) {
	c := newIntegrationCache(t)
	assert.NoError(t, c.Delete(context.Background(), "task:"+uuid.NewString()))
}

func TestRedisCache_TTLExpiresEntry(t *testing.T) {
	c := newIntegrationCache(t)
	ctx := context.Background()

	key := "task:" + uuid.NewString()
	require.NoError(t, c.Set(ctx, key, []byte("v"), 100*time.Millisecond))

	time.Sleep(300 * time.Millisecond)

	_, hit, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, hit, "entry must expire after its TTL")
}
