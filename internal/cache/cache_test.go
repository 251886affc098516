package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBalances() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"alice": decimal.RequireFromString("60.005"),
		"bob":   decimal.RequireFromString("-30"),
		"carol": decimal.RequireFromString("-30.005"),
	}
}

func newRedisCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), Config{Addr: mr.Addr(), TTL: ttl})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestBalanceCache_Implementations(t *testing.T) {
	redisCache, _ := newRedisCache(t, time.Minute)

	caches := map[string]BalanceCache{
		"memory": NewMemoryCache(),
		"redis":  redisCache,
	}

	for name, c := range caches {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := c.Get(ctx, "g1")
			require.NoError(t, err)
			assert.False(t, ok, "empty cache misses")

			require.NoError(t, c.Set(ctx, "g1", sampleBalances()))

			got, ok, err := c.Get(ctx, "g1")
			require.NoError(t, err)
			require.True(t, ok)
			require.Len(t, got, 3)
			for id, want := range sampleBalances() {
				assert.True(t, want.Equal(got[id]), "%s: want %s, got %s", id, want, got[id])
			}

			_, ok, err = c.Get(ctx, "g2")
			require.NoError(t, err)
			assert.False(t, ok, "entries are per group")

			require.NoError(t, c.Invalidate(ctx, "g1"))
			_, ok, err = c.Get(ctx, "g1")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, c.Invalidate(ctx, "never-set"))
		})
	}
}

func TestRedisCache_KeyAndTTL(t *testing.T) {
	c, mr := newRedisCache(t, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "g1", sampleBalances()))
	assert.True(t, mr.Exists("splitledger:balances:g1"))
	assert.Equal(t, 30*time.Second, mr.TTL("splitledger:balances:g1"))

	mr.FastForward(31 * time.Second)
	_, ok, err := c.Get(ctx, "g1")
	require.NoError(t, err)
	assert.False(t, ok, "entry expires after TTL")
}

func TestRedisCache_CorruptEntry(t *testing.T) {
	c, mr := newRedisCache(t, time.Minute)
	require.NoError(t, mr.Set("splitledger:balances:g1", "not json"))

	_, _, err := c.Get(context.Background(), "g1")
	assert.Error(t, err)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewRedisCache(ctx, Config{Addr: addr})
	assert.Error(t, err)
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	in := sampleBalances()
	require.NoError(t, c.Set(ctx, "g1", in))

	in["alice"] = decimal.Zero
	got, _, _ := c.Get(ctx, "g1")
	got["bob"] = decimal.Zero

	again, _, _ := c.Get(ctx, "g1")
	assert.True(t, again["alice"].Equal(decimal.RequireFromString("60.005")))
	assert.True(t, again["bob"].Equal(decimal.RequireFromString("-30")))
}
