package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// SummaryCache holds the generated KT document per session.
type SummaryCache interface {
	Get(ctx context.Context, sessionId string) (string, bool, error)
	Set(ctx context.Context, sessionId, summary string) error
	Delete(ctx context.Context, sessionId string) error
}

func summaryKey(sessionId string) string {
	return fmt.Sprintf("kt:summary:%s", sessionId)
}

type RedisSummaryCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSummaryCache(rdb *redis.Client, ttl time.Duration) *RedisSummaryCache {
	return &RedisSummaryCache{rdb: rdb, ttl: ttl}
}

func (c *RedisSummaryCache) Get(ctx context.Context, sessionId string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, summaryKey(sessionId)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisSummaryCache) Set(ctx context.Context, sessionId, summary string) error {
	return c.rdb.Set(ctx, summaryKey(sessionId), summary, c.ttl).Err()
}

func (c *RedisSummaryCache) Delete(ctx context.Context, sessionId string) error {
	return c.rdb.Del(ctx, summaryKey(sessionId)).Err()
}

// MemorySummaryCache is used when Redis is unreachable.
type MemorySummaryCache struct {
	cache *gocache.Cache
}

func NewMemorySummaryCache(ttl time.Duration) *MemorySummaryCache {
	return &MemorySummaryCache{cache: gocache.New(ttl, 10*time.Minute)}
}

func (c *MemorySummaryCache) Get(ctx context.Context, sessionId string) (string, bool, error) {
	if x, found := c.cache.Get(summaryKey(sessionId)); found {
		return x.(string), true, nil
	}
	return "", false, nil
}

func (c *MemorySummaryCache) Set(ctx context.Context, sessionId, summary string) error {
	c.cache.Set(summaryKey(sessionId), summary, gocache.DefaultExpiration)
	return nil
}

func (c *MemorySummaryCache) Delete(ctx context.Context, sessionId string) error {
	c.cache.Delete(summaryKey(sessionId))
	return nil
}
