package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"scamfeed/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrendingCache_NilClientMisses(t *testing.T) {
	c := NewTrendingCache(nil, time.Minute)
	require.NoError(t, c.Set(context.Background(), []domain.TrendingType{{Type: "Smishing", Count: 1}}))

	_, ok, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTrendingCache_Redis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping redis integration test")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	ctx := context.Background()
	c := NewTrendingCache(rdb, time.Minute)
	require.NoError(t, c.Invalidate(ctx))

	items := []domain.TrendingType{{Type: "Smishing", Count: 4}, {Type: "Voice Phishing", Count: 2}}
	require.NoError(t, c.Set(ctx, items))

	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, items, got)

	require.NoError(t, c.Invalidate(ctx))
	_, ok, err = c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
