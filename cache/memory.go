package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/maypok86/otter/v2"
)

// entry guarda o valor e o instante absoluto de expiração.
type entry struct {
	data      []byte
	expiresAt time.Time
}

// Memory é um cache em memória W-TinyLFU (otter) com limite de entradas.
//
// O otter remove entradas vencidas sozinho; a checagem de expiresAt no Get
// garante que nada é servido depois do TTL mesmo antes dessa limpeza.
type Memory struct {
	cache *otter.Cache[string, entry]
	now   func() time.Time
}

type MemoryOption func(*Memory)

// WithClock troca o relógio usado para expiração (útil em testes).
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory cria o cache com no máximo maxSize entradas. maxTTL é o teto de
// vida usado pelo otter para remover entradas; TTLs por entrada devem ser <= maxTTL.
func NewMemory(maxSize int, maxTTL time.Duration, opts ...MemoryOption) (*Memory, error) {
	c, err := otter.New[string, entry](&otter.Options[string, entry]{
		MaximumSize:      maxSize,
		ExpiryCalculator: otter.ExpiryWriting[string, entry](maxTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	m := &Memory{cache: c, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	e, ok := m.cache.GetIfPresent(key)
	if !ok {
		return nil, false
	}
	if !m.now().Before(e.expiresAt) {
		m.cache.Invalidate(key)
		return nil, false
	}
	return e.data, true
}

func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) {
	m.cache.Set(key, entry{
		data:      val,
		expiresAt: m.now().Add(ttl),
	})
}

func (m *Memory) Delete(_ context.Context, key string) {
	m.cache.Invalidate(key)
}

func (m *Memory) Purge(_ context.Context) {
	m.cache.InvalidateAll()
}
