package infra

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Roda só com um Redis real: REDIS_ADDR=localhost:6379 go test ./...
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	return rdb
}

func TestRedisCounter_IncrementsAndExpires(t *testing.T) {
	rdb := newTestRedis(t)
	c := NewRedisCounter(rdb, WithCounterPrefix("test:"+uuid.NewString()))
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		n, resetAt, err := c.Incr(ctx, "10.0.0.1", 200*time.Millisecond)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != i {
			t.Fatalf("expected count=%d, got %d", i, n)
		}
		if time.Until(resetAt) > 200*time.Millisecond {
			t.Fatalf("resetAt too far in the future: %s", resetAt)
		}
	}

	time.Sleep(300 * time.Millisecond)

	n, _, err := c.Incr(ctx, "10.0.0.1", 200*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected a new window with count=1, got %d", n)
	}
}
