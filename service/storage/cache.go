package storage

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"DevLink/logger"
)

// TimelineCache holds precomputed timeline pages in Redis. It is a
// performance layer, not a source of truth: every operation fails soft. A
// broken or unreachable Redis turns Get into a miss and Set/Invalidate into
// no-ops, and the caller never sees an error.
//
// Entries are independent per key; last writer wins, staleness is bounded by
// the TTL rather than by versioning.
type TimelineCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewTimelineCache(rdb *redis.Client, ttl time.Duration) *TimelineCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TimelineCache{rdb: rdb, ttl: ttl}
}

// Key builds the page key. cursor is the raw cursor token ("" for latest);
// string composition keeps distinct (user, cursor, size) triples collision
// free.
func Key(userID, cursor string, pageSize int) string {
	return fmt.Sprintf("timeline:%s:%s:%d", userID, cursor, pageSize)
}

func viewPrefix(userID string) string {
	return fmt.Sprintf("timeline:%s:", userID)
}

// Get returns the cached payload, or ok=false on miss or any cache failure.
func (c *TimelineCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	val, err := c.rdb.Get(ctx, key).Bytes()
	if pkgerrors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logger.Warnf("[cache] get degraded to miss key=%s err=%v", key, err)
		return nil, false
	}
	return val, true
}

// Set stores a fully assembled page under the layer TTL. Write errors are
// logged and dropped.
func (c *TimelineCache) Set(ctx context.Context, key string, payload []byte) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		logger.Warnf("[cache] set dropped key=%s err=%v", key, err)
	}
}

// Invalidate removes a single page entry.
func (c *TimelineCache) Invalidate(ctx context.Context, key string) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		logger.Warnf("[cache] invalidate dropped key=%s err=%v", key, err)
	}
}

// InvalidateView removes every cached page addressed to one viewer. Used on
// the write path for the author's own view; follower views are left to TTL
// expiry (that fan-out can be arbitrarily large).
func (c *TimelineCache) InvalidateView(ctx context.Context, userID string) {
	if c == nil || c.rdb == nil {
		return
	}
	var (
		cursor uint64
		match  = viewPrefix(userID) + "*"
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			logger.Warnf("[cache] view invalidation aborted user=%s err=%v", userID, err)
			return
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				logger.Warnf("[cache] view invalidation del failed user=%s err=%v", userID, err)
				return
			}
		}
		if next == 0 {
			return
		}
		cursor = next
	}
}

// TTL exposes the configured entry lifetime.
func (c *TimelineCache) TTL() time.Duration { return c.ttl }
