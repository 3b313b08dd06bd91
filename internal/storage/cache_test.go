package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeSnapshot struct {
	Revenue float64 `json:"revenue"`
	Label   string  `json:"label"`
}

func setupCacheTest(t *testing.T) (*SnapshotCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewSnapshotCacheWithClient(rdb, 5*time.Minute), mr
}

func TestSnapshotCache_RoundTrip(t *testing.T) {
	cache, _ := setupCacheTest(t)
	ctx := context.Background()

	cache.Set(ctx, "client-1", 90, fakeSnapshot{Revenue: 1200.5, Label: "90d"})

	var got fakeSnapshot
	if !cache.Get(ctx, "client-1", 90, &got) {
		t.Fatal("expected a cache hit")
	}
	if got.Revenue != 1200.5 || got.Label != "90d" {
		t.Errorf("unexpected snapshot: %+v", got)
	}
}

func TestSnapshotCache_MissOnDifferentTimeframe(t *testing.T) {
	cache, _ := setupCacheTest(t)
	ctx := context.Background()

	cache.Set(ctx, "client-1", 90, fakeSnapshot{Revenue: 10})

	var got fakeSnapshot
	if cache.Get(ctx, "client-1", 28, &got) {
		t.Error("expected a miss for a timeframe that was never cached")
	}
}

func TestSnapshotCache_TTLExpiry(t *testing.T) {
	cache, mr := setupCacheTest(t)
	ctx := context.Background()

	cache.Set(ctx, "client-1", 90, fakeSnapshot{Revenue: 10})
	mr.FastForward(6 * time.Minute)

	var got fakeSnapshot
	if cache.Get(ctx, "client-1", 90, &got) {
		t.Error("expected the snapshot to expire")
	}
}

func TestSnapshotCache_InvalidateDropsAllTimeframes(t *testing.T) {
	cache, _ := setupCacheTest(t)
	ctx := context.Background()

	cache.Set(ctx, "client-1", 28, fakeSnapshot{Revenue: 1})
	cache.Set(ctx, "client-1", 90, fakeSnapshot{Revenue: 2})
	cache.Set(ctx, "client-2", 90, fakeSnapshot{Revenue: 3})

	cache.Invalidate(ctx, "client-1")

	var got fakeSnapshot
	if cache.Get(ctx, "client-1", 28, &got) || cache.Get(ctx, "client-1", 90, &got) {
		t.Error("expected client-1 snapshots to be dropped")
	}
	if !cache.Get(ctx, "client-2", 90, &got) {
		t.Error("expected client-2 snapshot to survive")
	}
}

func TestSnapshotCache_NilCacheIsAMiss(t *testing.T) {
	var cache *SnapshotCache
	ctx := context.Background()

	cache.Set(ctx, "client-1", 90, fakeSnapshot{Revenue: 10})

	var got fakeSnapshot
	if cache.Get(ctx, "client-1", 90, &got) {
		t.Error("nil cache must behave as a miss")
	}
}
