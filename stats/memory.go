package stats

import (
	"context"
	"sync"
)

// Counters guarda quantos eventos de cada Outcome foram vistos.
type Counters map[Outcome]int64

// Memory é uma implementação simples em memória.
// Útil para testes e desenvolvimento.
//
// Não faz expiração e não é indicada para produção.
type Memory struct {
	mu      sync.Mutex
	total   Counters
	byRoute map[string]Counters
	byKey   map[string]Counters

	trackKeys bool
}

type MemoryOption func(*Memory)

func WithTrackKeys(track bool) MemoryOption {
	return func(s *Memory) { s.trackKeys = track }
}

func NewMemory(opts ...MemoryOption) *Memory {
	s := &Memory{
		total:   make(Counters),
		byRoute: make(map[string]Counters),
		byKey:   make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Memory) Record(_ context.Context, ev Event) error {
	route := ev.Method + " " + ev.Path

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total[ev.Outcome]++
	bump(s.byRoute, route, ev.Outcome)
	if s.trackKeys && ev.Key != "" {
		bump(s.byKey, ev.Key, ev.Outcome)
	}
	return nil
}

func bump(m map[string]Counters, k string, o Outcome) {
	c, ok := m[k]
	if !ok {
		c = make(Counters)
		m[k] = c
	}
	c[o]++
}

func (s *Memory) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCounters(s.total)
}

func (s *Memory) ByRoute() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyMap(s.byRoute)
}

func (s *Memory) ByKey() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyMap(s.byKey)
}

func copyCounters(c Counters) Counters {
	out := make(Counters, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

func copyMap(m map[string]Counters) map[string]Counters {
	out := make(map[string]Counters, len(m))
	for k, v := range m {
		out[k] = copyCounters(v)
	}
	return out
}
