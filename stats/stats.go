// Package stats registra o resultado de cada etapa do pipeline do gateway
// (auth, rate limit, cache, upstream).
//
// O registro é best-effort: quem chama ignora o erro, nunca derruba a request.
package stats

import (
	"context"
	"time"
)

type Outcome string

const (
	Unauthorized  Outcome = "unauthorized"
	RateLimited   Outcome = "rate_limited"
	CacheHit      Outcome = "cache_hit"
	CacheMiss     Outcome = "cache_miss"
	Served        Outcome = "served"
	UpstreamError Outcome = "upstream_error"
)

// Outcomes lista todos os resultados possíveis, na ordem do pipeline.
var Outcomes = []Outcome{Unauthorized, RateLimited, CacheHit, CacheMiss, Served, UpstreamError}

// Event representa o resultado de uma etapa para uma requisição.
//
// Observação: cuidado com cardinalidade (ex.: salvar Key/Path sem controle pode
// explodir o número de séries/chaves em uma base como Redis/Prometheus).
type Event struct {
	// Key identifica o cliente (IP).
	Key     string
	Outcome Outcome

	Method string
	Path   string

	At time.Time
}

// Recorder é a estratégia de persistência das estatísticas.
//
// Implementações podem armazenar em Redis, Prometheus, memória, etc.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// Record é um atalho nil-safe.
func Record(ctx context.Context, r Recorder, ev Event) {
	if r == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	_ = r.Record(ctx, ev)
}

// Multi repassa o evento para vários recorders. Retorna o primeiro erro,
// mas sempre tenta todos.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, ev Event) error {
	var first error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
