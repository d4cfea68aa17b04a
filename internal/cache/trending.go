package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"scamfeed/internal/domain"

	"github.com/redis/go-redis/v9"
)

const trendingKey = "feed:trending"

// TrendingCache keeps the trending scam types in Redis. A nil client turns
// every call into a miss.
type TrendingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewTrendingCache(rdb *redis.Client, ttl time.Duration) *TrendingCache {
	return &TrendingCache{rdb: rdb, ttl: ttl}
}

// Get reports false on a miss
func (c *TrendingCache) Get(ctx context.Context) ([]domain.TrendingType, bool, error) {
	if c == nil || c.rdb == nil {
		return nil, false, nil
	}
	val, err := c.rdb.Get(ctx, trendingKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var out []domain.TrendingType
	if err := json.Unmarshal(val, &out); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (c *TrendingCache) Set(ctx context.Context, items []domain.TrendingType) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, trendingKey, b, c.ttl).Err()
}

func (c *TrendingCache) Invalidate(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, trendingKey).Err()
}

// Enabled reports whether a Redis client is configured
func (c *TrendingCache) Enabled() bool { return c != nil && c.rdb != nil }

func (c *TrendingCache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}
