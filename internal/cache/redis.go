package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/david-shiko/rubik-sub000/internal/config"
)

// DefaultCounterTTL is used when no TTL is configured.
const DefaultCounterTTL = time.Hour

type RedisCache struct {
	Client     *redis.Client
	CounterTTL time.Duration
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts), CounterTTL: cfg.Matcher.CounterTTL}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

func (c *RedisCache) ttl() time.Duration {
	if c.CounterTTL <= 0 {
		return DefaultCounterTTL
	}
	return c.CounterTTL
}

// KeyForPostCounters generates Redis key for the like/dislike counters of a post
func (c *RedisCache) KeyForPostCounters(postID uint64) string {
	return fmt.Sprintf("posts:counters:%d", postID)
}

// SetPostCounters stores both counters of a post.
func (c *RedisCache) SetPostCounters(ctx context.Context, postID uint64, likes, dislikes int) error {
	key := c.KeyForPostCounters(postID)
	pipe := c.Client.TxPipeline()
	pipe.HSet(ctx, key, "likes", likes, "dislikes", dislikes)
	// Always refresh TTL when updating
	pipe.Expire(ctx, key, c.ttl())
	_, err := pipe.Exec(ctx)
	return err
}

// GetPostCounters returns the cached counters of a post. ok is false on a
// cache miss.
func (c *RedisCache) GetPostCounters(ctx context.Context, postID uint64) (likes, dislikes int, ok bool, err error) {
	key := c.KeyForPostCounters(postID)
	vals, err := c.Client.HMGet(ctx, key, "likes", "dislikes").Result()
	if errors.Is(err, redis.Nil) {
		return 0, 0, false, nil
	} else if err != nil {
		return 0, 0, false, err
	}
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return 0, 0, false, nil // cache miss
	}

	if likes, err = toInt(vals[0]); err != nil {
		return 0, 0, false, err
	}
	if dislikes, err = toInt(vals[1]); err != nil {
		return 0, 0, false, err
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, c.ttl()).Err()
	return likes, dislikes, true, nil
}

func toInt(v any) (int, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected cached value %T", v)
	}
	return strconv.Atoi(s)
}
