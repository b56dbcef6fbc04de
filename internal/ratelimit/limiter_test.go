package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, classes map[string]Limit) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return New(rdb, classes), mr
}

func TestAllowWithinBudget(t *testing.T) {
	limiter, _ := newTestLimiter(t, map[string]Limit{
		"signup": {Requests: 3, Window: time.Minute},
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d := limiter.Allow(ctx, "signup", "10.0.0.1")
		require.True(t, d.Allowed, "request %d should be admitted", i+1)
		assert.Equal(t, 3-i-1, d.Remaining)
	}

	d := limiter.Allow(ctx, "signup", "10.0.0.1")
	assert.False(t, d.Allowed)
	assert.GreaterOrEqual(t, d.RetryAfter, time.Second)
	assert.LessOrEqual(t, d.RetryAfter, time.Minute)
}

func TestAllowKeyedPerIP(t *testing.T) {
	limiter, _ := newTestLimiter(t, map[string]Limit{
		"signup": {Requests: 1, Window: time.Minute},
	})
	ctx := context.Background()

	require.True(t, limiter.Allow(ctx, "signup", "10.0.0.1").Allowed)
	assert.False(t, limiter.Allow(ctx, "signup", "10.0.0.1").Allowed)

	// A different client is unaffected by the first one's exhaustion.
	assert.True(t, limiter.Allow(ctx, "signup", "10.0.0.2").Allowed)
}

func TestAllowKeyedPerClass(t *testing.T) {
	limiter, _ := newTestLimiter(t, map[string]Limit{
		"signup": {Requests: 1, Window: time.Minute},
		"sync":   {Requests: 1, Window: time.Minute},
	})
	ctx := context.Background()

	require.True(t, limiter.Allow(ctx, "signup", "10.0.0.1").Allowed)
	assert.False(t, limiter.Allow(ctx, "signup", "10.0.0.1").Allowed)
	assert.True(t, limiter.Allow(ctx, "sync", "10.0.0.1").Allowed)
}

func TestWindowSlides(t *testing.T) {
	limiter, mr := newTestLimiter(t, map[string]Limit{
		"signup": {Requests: 1, Window: time.Minute},
	})
	ctx := context.Background()

	require.True(t, limiter.Allow(ctx, "signup", "10.0.0.1").Allowed)
	require.False(t, limiter.Allow(ctx, "signup", "10.0.0.1").Allowed)

	// Old entries are scored by wall-clock nanos, so rewriting the stored
	// score past the window edge simulates elapsed time.
	key := "ratelimit:signup:10.0.0.1"
	members, err := mr.ZMembers(key)
	require.NoError(t, err)
	for _, m := range members {
		stale := float64(time.Now().Add(-2 * time.Minute).UnixNano())
		_, err := mr.ZAdd(key, stale, m)
		require.NoError(t, err)
	}

	assert.True(t, limiter.Allow(ctx, "signup", "10.0.0.1").Allowed)
}

func TestUnknownClassUsesDefaultBudget(t *testing.T) {
	limiter, _ := newTestLimiter(t, map[string]Limit{})
	ctx := context.Background()

	d := limiter.Allow(ctx, "mystery", "10.0.0.1")
	require.True(t, d.Allowed)
	assert.Equal(t, 59, d.Remaining)
}

func TestFailOpenWhenRedisDown(t *testing.T) {
	limiter, mr := newTestLimiter(t, map[string]Limit{
		"signup": {Requests: 1, Window: time.Minute},
	})
	ctx := context.Background()

	require.True(t, limiter.Allow(ctx, "signup", "10.0.0.1").Allowed)
	require.False(t, limiter.Allow(ctx, "signup", "10.0.0.1").Allowed)

	mr.Close()

	// With the backend gone, even an exhausted client is admitted.
	assert.True(t, limiter.Allow(ctx, "signup", "10.0.0.1").Allowed)
}
