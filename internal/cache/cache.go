// Package cache provides a nil-safe redis read-through cache. With no redis
// address configured every operation is a no-op, so callers never branch on
// whether caching is enabled, and a redis outage degrades to database reads.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// defaultTTL bounds staleness for cached lookups.
const defaultTTL = 5 * time.Minute

// Cache wraps an optional redis client.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New builds a Cache. An empty addr returns a disabled cache.
func New(addr, password string, db int) *Cache {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return &Cache{ttl: defaultTTL}
	}
	return &Cache{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: defaultTTL,
	}
}

// Enabled reports whether a redis backend is configured.
func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// GetJSON loads a cached JSON value into out. A miss, a decode failure, or a
// redis error all report false.
func (c *Cache) GetJSON(ctx context.Context, key string, out any) bool {
	if !c.Enabled() {
		return false
	}
	data, errGet := c.rdb.Get(ctx, key).Bytes()
	if errGet != nil {
		if errGet != redis.Nil {
			log.WithError(errGet).WithField("key", key).Debug("cache get failed")
		}
		return false
	}
	if errDecode := json.Unmarshal(data, out); errDecode != nil {
		return false
	}
	return true
}

// SetJSON stores a JSON-encoded value with the default TTL. Failures are
// logged and otherwise ignored.
func (c *Cache) SetJSON(ctx context.Context, key string, value any) {
	if !c.Enabled() {
		return
	}
	data, errEncode := json.Marshal(value)
	if errEncode != nil {
		return
	}
	if errSet := c.rdb.Set(ctx, key, data, c.ttl).Err(); errSet != nil {
		log.WithError(errSet).WithField("key", key).Debug("cache set failed")
	}
}

// Delete removes keys, ignoring failures.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	if errDel := c.rdb.Del(ctx, keys...).Err(); errDel != nil {
		log.WithError(errDel).Debug("cache delete failed")
	}
}
