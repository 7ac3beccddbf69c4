package infra

import (
	"context"
	"sync"
	"time"

	"weather-gateway/middleware/ratelimit/domain"
)

// MemoryCounter é um domain.Counter de janela fixa em memória, por chave.
//
// As janelas vencidas são reiniciadas no próximo Incr; o janitor só remove as
// que ninguém mais tocou, para o map não crescer sem limite.
type MemoryCounter struct {
	mu           sync.Mutex
	windows      map[string]*window
	now          func() time.Time
	cleanupEvery time.Duration
}

type window struct {
	count   int64
	resetAt time.Time
}

type MemoryCounterOption func(*MemoryCounter)

// WithClock troca o relógio (útil em testes).
func WithClock(now func() time.Time) MemoryCounterOption {
	return func(c *MemoryCounter) { c.now = now }
}

func WithCleanupEvery(d time.Duration) MemoryCounterOption {
	return func(c *MemoryCounter) { c.cleanupEvery = d }
}

func NewMemoryCounter(opts ...MemoryCounterOption) *MemoryCounter {
	c := &MemoryCounter{
		windows:      make(map[string]*window),
		now:          time.Now,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Incr implementa domain.Counter.
func (c *MemoryCounter) Incr(_ context.Context, key domain.Key, size time.Duration) (int64, time.Time, error) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.windows[string(key)]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(size)}
		c.windows[string(key)] = w
	}
	w.count++
	return w.count, w.resetAt, nil
}

// Len retorna quantas chaves estão sendo rastreadas.
func (c *MemoryCounter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.windows)
}

// Cleanup remove as janelas já encerradas.
func (c *MemoryCounter) Cleanup() {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, w := range c.windows {
		if !now.Before(w.resetAt) {
			delete(c.windows, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa janelas encerradas periodicamente.
// Pare cancelando o contexto.
func (c *MemoryCounter) StartJanitor(ctx DoneContext) {
	startJanitor(ctx, c.cleanupEvery, c.Cleanup)
}

func startJanitor(ctx DoneContext, every time.Duration, cleanup func()) {
	if every <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				cleanup()
			}
		}
	}()
}

// DoneContext é o mínimo necessário para aceitar context.Context no janitor.
type DoneContext interface {
	Done() <-chan struct{}
}
