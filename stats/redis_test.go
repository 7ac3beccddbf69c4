package stats

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Roda só com um Redis real: REDIS_ADDR=localhost:6379 go test ./...
func TestRedis_IncrementsHashes(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}

	prefix := "test:" + uuid.NewString()
	at := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	t.Cleanup(func() {
		_ = rdb.Del(context.Background(),
			prefix+":total", prefix+":route", prefix+":minute:202405011230", prefix+":key:10.0.0.1").Err()
	})

	s := NewRedis(rdb, WithPrefix(prefix), WithRedisTrackKeys(true))
	for range 2 {
		if err := s.Record(ctx, Event{Key: "10.0.0.1", Outcome: CacheHit, Method: "GET", Path: "/api/weather", At: at}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	_ = s.Record(ctx, Event{Key: "10.0.0.1", Outcome: RateLimited, Method: "GET", Path: "/api/weather", At: at})

	if got, _ := rdb.HGet(ctx, prefix+":total", "cache_hit").Int64(); got != 2 {
		t.Fatalf("expected total cache_hit 2, got %d", got)
	}
	if got, _ := rdb.HGet(ctx, prefix+":minute:202405011230", "rate_limited").Int64(); got != 1 {
		t.Fatalf("expected minute bucket rate_limited 1, got %d", got)
	}
	if got, _ := rdb.HGet(ctx, prefix+":route", "GET /api/weather:cache_hit").Int64(); got != 2 {
		t.Fatalf("expected route counter 2, got %d", got)
	}
	if got, _ := rdb.HGet(ctx, prefix+":key:10.0.0.1", "cache_hit").Int64(); got != 2 {
		t.Fatalf("expected key counter 2, got %d", got)
	}
	if ttl := rdb.TTL(ctx, prefix+":minute:202405011230").Val(); ttl <= 0 {
		t.Fatalf("expected minute bucket to expire, ttl=%v", ttl)
	}
}

func TestRedis_NilIsNoop(t *testing.T) {
	var s *Redis
	if err := s.Record(context.Background(), Event{Outcome: Served}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
