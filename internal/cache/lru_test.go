package cache

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestLRU[T any](maxSize int, ttl time.Duration) (*LRUCache[T], *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[T](maxSize, ttl)
	c.now = clock.Now
	return c, clock
}

// TestLRUCacheEviction tests size-based eviction
func TestLRUCacheEviction(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestLRU[string](3, time.Hour)

	cache.Set(ctx, "key1", "value1")
	cache.Set(ctx, "key2", "value2")
	cache.Set(ctx, "key3", "value3")
	cache.Get(ctx, "key1")           // key1 becomes most recently used
	cache.Set(ctx, "key4", "value4") // evicts key2

	if _, found := cache.Get(ctx, "key2"); found {
		t.Error("key2 should have been evicted")
	}
	for _, key := range []string{"key1", "key3", "key4"} {
		if _, found := cache.Get(ctx, key); !found {
			t.Errorf("%s should still exist", key)
		}
	}
	if cache.Size() != 3 {
		t.Errorf("Size() = %d, want 3", cache.Size())
	}
}

// TestLRUCacheTTLExpiration tests time-based expiration
func TestLRUCacheTTLExpiration(t *testing.T) {
	ctx := context.Background()
	cache, clock := newTestLRU[string](100, 50*time.Millisecond)

	cache.Set(ctx, "key1", "value1")
	if _, found := cache.Get(ctx, "key1"); !found {
		t.Error("key1 should exist immediately")
	}

	clock.Advance(60 * time.Millisecond)
	if _, found := cache.Get(ctx, "key1"); found {
		t.Error("key1 should have expired")
	}
}

// TestLRUCacheCleanExpired tests the cleanup mechanism
func TestLRUCacheCleanExpired(t *testing.T) {
	ctx := context.Background()
	cache, clock := newTestLRU[string](100, 50*time.Millisecond)

	cache.Set(ctx, "key1", "value1")
	cache.Set(ctx, "key2", "value2")
	clock.Advance(60 * time.Millisecond)
	cache.Set(ctx, "key3", "value3")

	if removed := cache.CleanExpired(); removed != 2 {
		t.Errorf("Expected 2 items cleaned, got %d", removed)
	}
	if cache.Size() != 1 {
		t.Errorf("Size() = %d, want 1", cache.Size())
	}
}

func TestLRUCacheDeletePrefix(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestLRU[int](10, time.Hour)

	cache.Set(ctx, "spending:alice:30:5", 1)
	cache.Set(ctx, "spending:alice:7:3", 2)
	cache.Set(ctx, "spending:bob:30:5", 3)

	if removed := cache.DeletePrefix(ctx, "spending:alice:"); removed != 2 {
		t.Errorf("DeletePrefix removed %d, want 2", removed)
	}
	if _, found := cache.Get(ctx, "spending:bob:30:5"); !found {
		t.Error("other owners' entries must survive")
	}
}

func TestManagerRegistersOnlyCleaners(t *testing.T) {
	m := NewManager()
	m.Register(NewLRUCache[string](1, time.Minute))
	m.Register(&RedisCache[string]{})
	if len(m.caches) != 1 {
		t.Fatalf("registered %d caches, want 1", len(m.caches))
	}
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop() // second stop is a no-op
}

// BenchmarkLRUCache benchmarks a mixed read/write workload
func BenchmarkLRUCache(b *testing.B) {
	ctx := context.Background()
	cache := NewLRUCache[string](1000, time.Hour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%10 == 0 {
			cache.Set(ctx, "bench-key", "value")
		} else {
			cache.Get(ctx, "bench-key")
		}
	}
}
