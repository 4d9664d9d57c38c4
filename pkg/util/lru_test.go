package util

import (
	"testing"
	"time"
)

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cache, err := NewWithConfig(CacheConfig[string, int]{Capacity: 2})
	if err != nil {
		t.Fatalf("NewWithConfig() error = %v", err)
	}

	cache.Put("a", 1, 1)
	cache.Put("b", 2, 1)
	if _, ok := cache.Get("a"); !ok {
		t.Fatal("a should still be cached")
	}

	// b is now the least recently used and must be evicted.
	cache.Put("c", 3, 1)
	if _, ok := cache.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := cache.Get("a"); !ok {
		t.Error("a should survive the eviction")
	}
	if _, ok := cache.Get("c"); !ok {
		t.Error("c should be cached")
	}
}

func TestLRUCache_TTLExpiry(t *testing.T) {
	cache, err := NewWithConfig(CacheConfig[string, int]{Capacity: 10, TTL: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewWithConfig() error = %v", err)
	}

	cache.Put("a", 1, 1)
	if _, ok := cache.Get("a"); !ok {
		t.Fatal("a should be cached before the TTL elapses")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := cache.Get("a"); ok {
		t.Error("a should have expired")
	}
	if cache.Len() != 0 {
		t.Errorf("Len() = %d after lazy expiry, expected 0", cache.Len())
	}
}

func TestNewWithConfig_RequiresALimit(t *testing.T) {
	if _, err := NewWithConfig(CacheConfig[string, int]{}); err == nil {
		t.Error("a cache without capacity or weight limit must be rejected")
	}
}
