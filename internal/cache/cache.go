// Package cache memoises credential lookups and search pages in Redis.
// A Cache built without a client is disabled: reads miss, writes are dropped.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/mkisten/UserBankingService/internal/models"
	"github.com/sirupsen/logrus"
)

const searchGenerationKey = "search:gen"

type Cache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logrus.Entry
}

func New(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{
		rdb: rdb,
		ttl: ttl,
		log: logrus.WithField("component", "cache"),
	}
}

// Enabled reports whether a Redis client backs the cache.
func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

func loginKey(kind models.ContactKind, value string) string {
	return fmt.Sprintf("login:%s:%s", kind, value)
}

// SearchKey identifies one cached search page within a generation.
func SearchKey(generation int64, criteria models.SearchCriteria, page, size int) string {
	return fmt.Sprintf("search:%d:%s|page=%d|size=%d", generation, criteria.Key(), page, size)
}

// UserIDByContact returns the cached owner of a contact value.
func (c *Cache) UserIDByContact(ctx context.Context, kind models.ContactKind, value string) (int64, bool) {
	if !c.Enabled() {
		return 0, false
	}
	raw, err := c.rdb.Get(ctx, loginKey(kind, value)).Result()
	if err != nil {
		c.logMiss(err, loginKey(kind, value))
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (c *Cache) RememberContact(ctx context.Context, kind models.ContactKind, value string, userID int64) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Set(ctx, loginKey(kind, value), strconv.FormatInt(userID, 10), c.ttl).Err(); err != nil {
		c.log.WithError(err).Warn("failed to cache contact owner")
	}
}

// InvalidateContact drops the credential lookup for value and retires every
// cached search page.
func (c *Cache) InvalidateContact(ctx context.Context, kind models.ContactKind, value string) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Del(ctx, loginKey(kind, value)).Err(); err != nil {
		c.log.WithError(err).Warn("failed to evict contact owner")
	}
	if err := c.rdb.Incr(ctx, searchGenerationKey).Err(); err != nil {
		c.log.WithError(err).Warn("failed to bump search generation")
	}
}

// SearchGeneration returns the current search generation; pages cached under
// an older generation are never read again and expire on their TTL.
func (c *Cache) SearchGeneration(ctx context.Context) int64 {
	if !c.Enabled() {
		return 0
	}
	gen, err := c.rdb.Get(ctx, searchGenerationKey).Int64()
	if err != nil {
		c.logMiss(err, searchGenerationKey)
		return 0
	}
	return gen
}

// GetJSON decodes the value at key into dest and reports whether it was found.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	if !c.Enabled() {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		c.logMiss(err, key)
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("discarding undecodable cache entry")
		return false
	}
	return true
}

func (c *Cache) SetJSON(ctx context.Context, key string, value any) {
	if !c.Enabled() {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("failed to encode cache entry")
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("failed to write cache entry")
	}
}

func (c *Cache) logMiss(err error, key string) {
	if errors.Is(err, redis.Nil) {
		return
	}
	c.log.WithError(err).WithField("key", key).Warn("cache read failed")
}
