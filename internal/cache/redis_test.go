package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/david-shiko/rubik-sub000/internal/cache"
)

func setupCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &cache.RedisCache{Client: rdb, CounterTTL: time.Minute}, mr
}

func TestPostCounters(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	_, _, ok, err := c.GetPostCounters(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetPostCounters(ctx, 1, 4, 2))
	assert.Equal(t, time.Minute, mr.TTL(c.KeyForPostCounters(1)))

	mr.FastForward(30 * time.Second)
	likes, dislikes, ok, err := c.GetPostCounters(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, likes)
	assert.Equal(t, 2, dislikes)
	// access refreshes the TTL
	assert.Equal(t, time.Minute, mr.TTL(c.KeyForPostCounters(1)))

	require.NoError(t, c.Del(ctx, c.KeyForPostCounters(1)))
	_, _, ok, err = c.GetPostCounters(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCountersExpire(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	require.NoError(t, c.SetPostCounters(ctx, 7, 1, 0))
	mr.FastForward(2 * time.Minute)

	_, _, ok, err := c.GetPostCounters(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "posts:counters:7", c.KeyForPostCounters(7))
}

func TestPing(t *testing.T) {
	c, _ := setupCache(t)
	assert.NoError(t, c.Ping(context.Background()))
}
