package storage

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// needs a local redis; skipped when none is listening
func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	return rdb
}

func TestKeyFormat(t *testing.T) {
	if got := Key("u1", "1725000000000", 20); got != "timeline:u1:1725000000000:20" {
		t.Fatalf("bad key %q", got)
	}
	if got := Key("u1", "", 20); got != "timeline:u1::20" {
		t.Fatalf("latest-page key %q", got)
	}
}

func TestCacheRoundtrip(t *testing.T) {
	rdb := testRedis(t)
	defer rdb.Close()
	ctx := context.Background()
	c := NewTimelineCache(rdb, time.Minute)

	key := Key("cache-test-u1", "", 20)
	defer rdb.Del(ctx, key)

	if _, ok := c.Get(ctx, key); ok {
		t.Fatal("expected miss on empty cache")
	}

	payload := []byte(`{"posts":[],"terminal":true}`)
	c.Set(ctx, key, payload)

	got, ok := c.Get(ctx, key)
	if !ok {
		t.Fatal("expected hit after set")
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mangled: %q", got)
	}

	c.Invalidate(ctx, key)
	if _, ok := c.Get(ctx, key); ok {
		t.Fatal("expected miss after invalidate")
	}
}

func TestCacheEntryExpires(t *testing.T) {
	rdb := testRedis(t)
	defer rdb.Close()
	ctx := context.Background()
	c := NewTimelineCache(rdb, 200*time.Millisecond)

	key := Key("cache-test-u2", "", 20)
	defer rdb.Del(ctx, key)

	c.Set(ctx, key, []byte("page"))
	if _, ok := c.Get(ctx, key); !ok {
		t.Fatal("expected hit before expiry")
	}
	time.Sleep(400 * time.Millisecond)
	if _, ok := c.Get(ctx, key); ok {
		t.Fatal("expected miss after ttl expiry")
	}
}

func TestInvalidateViewIsScopedToUser(t *testing.T) {
	rdb := testRedis(t)
	defer rdb.Close()
	ctx := context.Background()
	c := NewTimelineCache(rdb, time.Minute)

	mine := []string{
		Key("cache-test-u3", "", 20),
		Key("cache-test-u3", "1725000000000", 20),
		Key("cache-test-u3", "", 50),
	}
	other := Key("cache-test-u30", "", 20) // prefix-adjacent user id
	for _, k := range mine {
		c.Set(ctx, k, []byte("page"))
	}
	c.Set(ctx, other, []byte("page"))
	defer rdb.Del(ctx, append(mine, other)...)

	c.InvalidateView(ctx, "cache-test-u3")

	for _, k := range mine {
		if _, ok := c.Get(ctx, k); ok {
			t.Fatalf("key %s survived view invalidation", k)
		}
	}
	if _, ok := c.Get(ctx, other); !ok {
		t.Fatal("neighboring user's entry was swept too")
	}
}

// All operations must degrade silently when redis is unreachable.
func TestCacheFailsSoft(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1", // nothing listens here
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()
	ctx := context.Background()
	c := NewTimelineCache(rdb, time.Minute)

	c.Set(ctx, Key("u", "", 20), []byte("page"))
	if _, ok := c.Get(ctx, Key("u", "", 20)); ok {
		t.Fatal("unreachable cache must read as a miss")
	}
	c.Invalidate(ctx, Key("u", "", 20))
	c.InvalidateView(ctx, "u")
}

func TestNilCacheIsInert(t *testing.T) {
	var c *TimelineCache
	ctx := context.Background()
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("nil cache must miss")
	}
	c.Set(ctx, "k", []byte("v"))
	c.Invalidate(ctx, "k")
	c.InvalidateView(ctx, "u")
}
