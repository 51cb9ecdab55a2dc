// Package cache provides Redis cache-aside helpers. A nil client disables caching.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/campus-p2p/backend/internal/observability"
	"github.com/redis/go-redis/v9"
)

const (
	PortalsKey    = "settings:portals"
	UserKeyPrefix = "user:%s"
)

const (
	PortalsTTL = time.Minute
	UserTTL    = 5 * time.Minute
)

func UserKey(uid string) string {
	return fmt.Sprintf(UserKeyPrefix, uid)
}

// Cache wraps an optional Redis client.
type Cache struct {
	client *redis.Client
}

// New returns a cache over client. client may be nil.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Enabled reports whether a Redis client is configured.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Aside loads key into dest, calling fetch to fill dest on a miss and
// storing the result for ttl. Redis failures fall through to fetch.
func (c *Cache) Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, fetch func() error) error {
	if !c.Enabled() {
		return fetch()
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
			observability.CacheResults.WithLabelValues("hit").Inc()
			return nil
		}
	} else if !errors.Is(err, redis.Nil) {
		observability.CacheResults.WithLabelValues("error").Inc()
	}
	observability.CacheResults.WithLabelValues("miss").Inc()

	if err := fetch(); err != nil {
		return err
	}
	if payload, err := json.Marshal(dest); err == nil {
		c.client.Set(ctx, key, payload, ttl)
	}
	return nil
}

// Invalidate drops key.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	if c.Enabled() {
		c.client.Del(ctx, key)
	}
}
