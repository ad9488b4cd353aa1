package notifications

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	unreadKeyPrefix = "notif:unread:" // notif:unread:{user_id} -> count
	unreadTTL       = 60 * time.Second
)

// UnreadCache keeps per-user unread counts in Redis. The badge polls this
// often; every notification write invalidates the entry.
type UnreadCache struct {
	client *redis.Client
}

func NewUnreadCache(client *redis.Client) *UnreadCache {
	return &UnreadCache{client: client}
}

func (c *UnreadCache) key(userID string) string {
	return unreadKeyPrefix + userID
}

// Get returns the cached count; ok is false on miss.
func (c *UnreadCache) Get(ctx context.Context, userID string) (int64, bool, error) {
	data, err := c.client.Get(ctx, c.key(userID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	n, err := strconv.ParseInt(data, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return n, true, nil
}

func (c *UnreadCache) Set(ctx context.Context, userID string, count int64) error {
	return c.client.Set(ctx, c.key(userID), count, unreadTTL).Err()
}

func (c *UnreadCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, c.key(userID)).Err()
}
