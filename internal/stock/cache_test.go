package stock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestQuantityCache(t *testing.T) *QuantityCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewQuantityCache(client, time.Minute)
}

func TestQuantityCacheRoundTrip(t *testing.T) {
	cache := newTestQuantityCache(t)
	ctx := context.Background()

	_, ok := cache.Get(ctx, 1, 7)
	require.False(t, ok)

	cache.Set(ctx, 1, 7, 42.5)
	qty, ok := cache.Get(ctx, 1, 7)
	require.True(t, ok)
	require.InDelta(t, 42.5, qty, 1e-9)

	cache.Invalidate(ctx, 1, 7)
	_, ok = cache.Get(ctx, 1, 7)
	require.False(t, ok)
}

func TestQuantityCacheNilSafe(t *testing.T) {
	var cache *QuantityCache
	ctx := context.Background()

	_, ok := cache.Get(ctx, 1, 7)
	require.False(t, ok)
	cache.Set(ctx, 1, 7, 1)
	cache.Invalidate(ctx, 1, 7)
}
