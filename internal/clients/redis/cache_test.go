package redis

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(16)
	ctx := context.Background()

	if _, ok := store.Get(ctx, "missing"); ok {
		t.Fatal("unexpected hit for missing key")
	}

	store.Set(ctx, "k", []byte("v"), time.Minute)
	got, ok := store.Get(ctx, "k")
	if !ok || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, ok)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(16)
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	store.Set(ctx, "k", []byte("v"), time.Minute)

	now = now.Add(30 * time.Second)
	if _, ok := store.Get(ctx, "k"); !ok {
		t.Fatal("entry expired early")
	}

	now = now.Add(31 * time.Second)
	if _, ok := store.Get(ctx, "k"); ok {
		t.Fatal("entry survived its TTL")
	}
}

func TestMemoryStoreEvictsAtCapacity(t *testing.T) {
	store := NewMemoryStore(4)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c", "d", "e", "f"} {
		store.Set(ctx, k, []byte(k), time.Minute)
	}

	store.mu.Lock()
	size := len(store.entries)
	store.mu.Unlock()
	if size > 4 {
		t.Fatalf("store grew past its bound: %d entries", size)
	}
}
