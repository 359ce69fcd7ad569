package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"vocalys/internal/domain"
)

func TestStatsCacheRoundTrip(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewStatsCache(rdb, 30*time.Second)
	ctx := context.Background()

	if _, ok, err := c.GetStats(ctx, "user-1"); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	want := domain.Stats{TotalCalls: 10, AverageDuration: 120, ResponseRate: 80, PositiveRatio: 67, AlertsCount: 2}
	if err := c.SetStats(ctx, "user-1", want); err != nil {
		t.Fatalf("SetStats() error: %v", err)
	}

	if !mr.Exists("stats:user-1") {
		t.Fatalf("expected key stats:user-1 to exist")
	}
	if ttl := mr.TTL("stats:user-1"); ttl <= 0 {
		t.Fatalf("expected TTL to be set, got %v", ttl)
	}

	got, ok, err := c.GetStats(ctx, "user-1")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestStatsCacheExpiry(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewStatsCache(rdb, time.Second)
	ctx := context.Background()

	if err := c.SetStats(ctx, "user-2", domain.Stats{TotalCalls: 1}); err != nil {
		t.Fatalf("SetStats() error: %v", err)
	}

	mr.FastForward(2 * time.Second)

	if _, ok, err := c.GetStats(ctx, "user-2"); err != nil || ok {
		t.Fatalf("expected miss after expiry, got ok=%v err=%v", ok, err)
	}
}
