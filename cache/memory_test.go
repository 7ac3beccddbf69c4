package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemory_GetSetDelete(t *testing.T) {
	t.Parallel()
	m, err := NewMemory(100, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, ok := m.Get(ctx, "missing"); ok {
		t.Error("should not find missing key")
	}

	m.Set(ctx, "/api/weather?city=Paris", []byte("v1"), time.Minute)

	val, ok := m.Get(ctx, "/api/weather?city=Paris")
	if !ok {
		t.Fatal("should find key")
	}
	if string(val) != "v1" {
		t.Errorf("value = %q, want %q", val, "v1")
	}

	m.Delete(ctx, "/api/weather?city=Paris")
	if _, ok := m.Get(ctx, "/api/weather?city=Paris"); ok {
		t.Error("should not find deleted key")
	}
}

func TestMemory_NeverServesAfterTTL(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Now()}
	m, err := NewMemory(100, time.Hour, WithClock(clk.Now))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	m.Set(ctx, "k", []byte("data"), 300*time.Second)

	clk.Advance(299 * time.Second)
	if _, ok := m.Get(ctx, "k"); !ok {
		t.Fatal("entry should still be fresh")
	}

	clk.Advance(time.Second)
	if _, ok := m.Get(ctx, "k"); ok {
		t.Error("entry should be expired exactly at its TTL")
	}
}

func TestMemory_SetOverwritesAndResetsTTL(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Now()}
	m, err := NewMemory(100, time.Hour, WithClock(clk.Now))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	m.Set(ctx, "k", []byte("old"), 10*time.Second)
	clk.Advance(8 * time.Second)
	m.Set(ctx, "k", []byte("new"), 10*time.Second)
	clk.Advance(8 * time.Second)

	val, ok := m.Get(ctx, "k")
	if !ok {
		t.Fatal("entry should still be fresh after overwrite")
	}
	if string(val) != "new" {
		t.Errorf("value = %q, want %q", val, "new")
	}
}

func TestMemory_Purge(t *testing.T) {
	t.Parallel()
	m, err := NewMemory(100, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	m.Set(ctx, "a", []byte("1"), time.Minute)
	m.Set(ctx, "b", []byte("2"), time.Minute)

	m.Purge(ctx)

	if _, ok := m.Get(ctx, "a"); ok {
		t.Error("purge should remove all keys")
	}
	if _, ok := m.Get(ctx, "b"); ok {
		t.Error("purge should remove all keys")
	}
}
