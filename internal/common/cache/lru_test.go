package cache_test

import (
	"context"
	"testing"
	"time"

	"vscsfarm/internal/common/cache"
)

func TestLRUCacheSetGetAndExpire(t *testing.T) {
	ctx := context.Background()
	c := cache.NewLRUCache(2, 10*time.Millisecond)
	_ = c.Set(ctx, "contest:c1", "Spring Cup", 0)

	if val, _ := c.Get(ctx, "contest:c1"); val != "Spring Cup" {
		t.Fatalf("expected cached value, got %q", val)
	}

	time.Sleep(15 * time.Millisecond)
	if val, _ := c.Get(ctx, "contest:c1"); val != "" {
		t.Fatalf("expected value to expire, got %q", val)
	}
	if c.Len() != 0 {
		t.Fatalf("expected expired entry to be dropped")
	}
}

func TestLRUCacheEviction(t *testing.T) {
	ctx := context.Background()
	c := cache.NewLRUCache(2, time.Minute)
	_ = c.Set(ctx, "a", "A", 0)
	_ = c.Set(ctx, "b", "B", 0)
	_, _ = c.Get(ctx, "a")
	_ = c.Set(ctx, "c", "C", 0)

	if val, _ := c.Get(ctx, "b"); val != "" {
		t.Fatalf("expected oldest entry to be evicted")
	}
	if val, _ := c.Get(ctx, "a"); val != "A" {
		t.Fatalf("expected recent entry to remain")
	}
	if val, _ := c.Get(ctx, "c"); val != "C" {
		t.Fatalf("expected newest entry to remain")
	}
}

func TestLRUCacheOverwriteAndDelete(t *testing.T) {
	ctx := context.Background()
	c := cache.NewLRUCache(4, time.Minute)
	_ = c.Set(ctx, "user:u1", "old", 0)
	_ = c.Set(ctx, "user:u1", "new", -1)

	if val, _ := c.Get(ctx, "user:u1"); val != "new" {
		t.Fatalf("expected overwritten value, got %q", val)
	}
	_ = c.Del(ctx, "user:u1", "missing")
	if val, _ := c.Get(ctx, "user:u1"); val != "" {
		t.Fatalf("expected entry to be deleted")
	}
}
