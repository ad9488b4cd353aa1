package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUnreadCache(t *testing.T) (*UnreadCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewUnreadCache(client), mr
}

func TestUnreadCache(t *testing.T) {
	cache, mr := newTestUnreadCache(t)
	ctx := context.Background()

	t.Run("miss", func(t *testing.T) {
		_, ok, err := cache.Get(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "u1", 7))

		n, ok, err := cache.Get(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(7), n)

		ttl := mr.TTL("notif:unread:u1")
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, 60*time.Second)
	})

	t.Run("entry expires", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "u2", 3))
		mr.FastForward(61 * time.Second)

		_, ok, err := cache.Get(ctx, "u2")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("invalidate", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "u3", 1))
		require.NoError(t, cache.Invalidate(ctx, "u3"))

		_, ok, err := cache.Get(ctx, "u3")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("garbage value is a miss", func(t *testing.T) {
		require.NoError(t, mr.Set("notif:unread:u4", "not-a-number"))

		_, ok, err := cache.Get(ctx, "u4")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
