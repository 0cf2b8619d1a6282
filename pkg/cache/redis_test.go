package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), "redis://"+srv.Addr())
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, srv
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedis(t)

	if _, hit, err := c.Get(ctx, "variant:x"); err != nil || hit {
		t.Fatalf("Get on empty = hit %v, err %v, want miss", hit, err)
	}

	if err := c.Set(ctx, "variant:x", []byte{0x89, 'P', 'N', 'G'}, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "variant:x")
	if err != nil || !hit {
		t.Fatalf("Get after Set = hit %v, err %v, want hit", hit, err)
	}
	if string(data) != "\x89PNG" {
		t.Errorf("Get() = %q, want %q", data, "\x89PNG")
	}

	if err := c.Delete(ctx, "variant:x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "variant:x"); hit {
		t.Error("Get after Delete should miss")
	}
}

func TestRedisCacheTTL(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestRedis(t)

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if ttl := srv.TTL("k"); ttl != time.Minute {
		t.Errorf("TTL = %v, want %v", ttl, time.Minute)
	}

	srv.FastForward(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired key should miss")
	}
}

func TestNewRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "http://nope"); err == nil {
		t.Error("NewRedisCache() with non-redis url should fail")
	}
}
