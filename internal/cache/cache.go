package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/imagehost/backend/internal/logger"
)

// Default TTLs per cached resource. Feeds churn quickly, tag clouds do not.
const (
	FeedTTL        = 30 * time.Second
	PostTTL        = 5 * time.Minute
	PopularTagsTTL = 10 * time.Minute
)

type Cache struct {
	client *redis.Client
	log    *logger.Logger
}

func New(addr string) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Cache{
		client: client,
		log:    logger.Default().WithComponent("cache"),
	}, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// Client exposes the underlying connection for health checks.
func (c *Cache) Client() *redis.Client {
	return c.client
}

func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		c.log.Warn(ctx, "cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		return "", false
	}
	return val, true
}

func (c *Cache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.Warn(ctx, "cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
		return err
	}
	return nil
}

// GetJSON reads a cached value into dest, reporting whether it was present.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	val, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		c.log.Warn(ctx, "cache entry corrupt, dropping", map[string]interface{}{"key": key})
		c.Delete(ctx, key)
		return false
	}
	return true
}

// SetJSON marshals value and stores it under key. Marshal failures are
// logged and swallowed because the cache is best effort.
func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn(ctx, "cache marshal failed", map[string]interface{}{"key": key, "error": err.Error()})
		return
	}
	c.Set(ctx, key, string(data), ttl)
}

func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn(ctx, "cache delete failed", map[string]interface{}{"error": err.Error()})
	}
}

// DeletePrefix removes every key under prefix using SCAN so large feeds
// can be invalidated without blocking Redis.
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) {
	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn(ctx, "cache scan failed", map[string]interface{}{"prefix": prefix, "error": err.Error()})
		return
	}
	c.Delete(ctx, keys...)
}

// Key builders. Keeping them here means every caller agrees on the
// naming scheme and invalidation stays a prefix delete.

func FeedKey(sort string, limit, offset int) string {
	return fmt.Sprintf("feed:%s:%d:%d", sort, limit, offset)
}

func PostKey(postID string) string {
	return "post:" + postID
}

func PopularTagsKey(limit int) string {
	return fmt.Sprintf("tags:popular:%d", limit)
}

// FeedPrefix is the prefix shared by all cached feed pages.
const FeedPrefix = "feed:"
