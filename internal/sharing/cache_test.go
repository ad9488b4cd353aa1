package sharing

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planforge/planforge-backend/internal/projects"
)

func newTestLinkCache(t *testing.T) (*LinkCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewLinkCache(client), mr
}

func TestLinkCacheRoundTrip(t *testing.T) {
	cache, mr := newTestLinkCache(t)
	ctx := context.Background()

	link := &ShareLink{
		Token:     NewToken(),
		ProjectID: "p1",
		Role:      projects.RoleEditor,
		CreatedBy: "u1",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, cache.Set(ctx, link))

	got, err := cache.Get(ctx, link.Token)
	require.NoError(t, err)
	assert.Equal(t, link.Token, got.Token)
	assert.Equal(t, link.ProjectID, got.ProjectID)
	assert.Equal(t, projects.RoleEditor, got.Role)

	// entry should carry the default TTL
	ttl := mr.TTL("share:link:" + link.Token)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, 10*time.Minute)
}

func TestLinkCacheMiss(t *testing.T) {
	cache, _ := newTestLinkCache(t)

	_, err := cache.Get(context.Background(), "deadbeefdeadbeefdeadbeefdeadbeef")
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestLinkCacheShortensTTLToExpiry(t *testing.T) {
	cache, mr := newTestLinkCache(t)
	ctx := context.Background()

	expires := time.Now().Add(30 * time.Second)
	link := &ShareLink{Token: NewToken(), ProjectID: "p1", Role: projects.RoleViewer, ExpiresAt: &expires}
	require.NoError(t, cache.Set(ctx, link))

	ttl := mr.TTL("share:link:" + link.Token)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, 30*time.Second)
}

func TestLinkCacheSkipsExpiredLinks(t *testing.T) {
	cache, mr := newTestLinkCache(t)
	ctx := context.Background()

	expires := time.Now().Add(-time.Minute)
	link := &ShareLink{Token: NewToken(), ExpiresAt: &expires}
	require.NoError(t, cache.Set(ctx, link))

	assert.False(t, mr.Exists("share:link:"+link.Token))
}

func TestLinkCacheDelete(t *testing.T) {
	cache, _ := newTestLinkCache(t)
	ctx := context.Background()

	link := &ShareLink{Token: NewToken(), ProjectID: "p1", Role: projects.RoleViewer}
	require.NoError(t, cache.Set(ctx, link))
	require.NoError(t, cache.Delete(ctx, link.Token))

	_, err := cache.Get(ctx, link.Token)
	assert.ErrorIs(t, err, ErrLinkNotFound)
}
