package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	_ "github.com/forgeline-erp/forgeline/internal/testing/guard"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCacheFetchJSONPopulatesAndHits(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	loads := 0
	loader := func(ctx context.Context) (any, error) {
		loads++
		return Dashboard{Counts: map[Health]int{HealthLow: 2}}, nil
	}

	var first Dashboard
	require.NoError(t, cache.FetchJSON(ctx, "inventory:dashboard", &first, loader))
	require.Equal(t, 1, loads)
	require.Equal(t, 2, first.Counts[HealthLow])

	var second Dashboard
	require.NoError(t, cache.FetchJSON(ctx, "inventory:dashboard", &second, loader))
	require.Equal(t, 1, loads, "second fetch must be served from cache")
}

func TestCacheBumpInvalidates(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	loads := 0
	loader := func(ctx context.Context) (any, error) {
		loads++
		return Dashboard{}, nil
	}

	var out Dashboard
	require.NoError(t, cache.FetchJSON(ctx, "inventory:dashboard", &out, loader))
	require.NoError(t, cache.Bump(ctx))
	require.NoError(t, cache.FetchJSON(ctx, "inventory:dashboard", &out, loader))
	require.Equal(t, 2, loads, "bump must force a reload")
}

func TestCacheNilClientFallsThrough(t *testing.T) {
	var cache *Cache
	var out Dashboard
	err := cache.FetchJSON(context.Background(), "k", &out, func(ctx context.Context) (any, error) {
		return Dashboard{Counts: map[Health]int{HealthCritical: 1}}, nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, out.Counts[HealthCritical])
}
