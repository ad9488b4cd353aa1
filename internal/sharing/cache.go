package sharing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	linkKeyPrefix = "share:link:" // share:link:{token} -> JSON ShareLink
	linkTTL       = 10 * time.Minute
)

// LinkCache keeps resolved share links in Redis so the anonymous /share/:token
// hot path rarely touches Postgres. Entries expire with the link or the TTL,
// whichever is sooner; revocation deletes eagerly.
type LinkCache struct {
	client *redis.Client
}

func NewLinkCache(client *redis.Client) *LinkCache {
	return &LinkCache{client: client}
}

func (c *LinkCache) key(token string) string {
	return linkKeyPrefix + token
}

func (c *LinkCache) Get(ctx context.Context, token string) (*ShareLink, error) {
	data, err := c.client.Get(ctx, c.key(token)).Result()
	if err == redis.Nil {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}

	var l ShareLink
	if err := json.Unmarshal([]byte(data), &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *LinkCache) Set(ctx context.Context, l *ShareLink) error {
	data, err := json.Marshal(l)
	if err != nil {
		return err
	}

	ttl := linkTTL
	if l.ExpiresAt != nil {
		if until := time.Until(*l.ExpiresAt); until < ttl {
			ttl = until
		}
	}
	if ttl <= 0 {
		return nil
	}

	return c.client.Set(ctx, c.key(l.Token), data, ttl).Err()
}

func (c *LinkCache) Delete(ctx context.Context, token string) error {
	return c.client.Del(ctx, c.key(token)).Err()
}
