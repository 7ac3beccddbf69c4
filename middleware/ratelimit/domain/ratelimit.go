package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"time"
)

type Key string

// Decision é o resultado de uma verificação de rate limit para uma chave.
type Decision struct {
	Allowed bool

	// Limit/Remaining são 0 quando a estratégia não expõe contagem
	// (ex.: token bucket).
	Limit     int64
	Remaining int64

	// ResetAt é o instante em que a janela atual termina. Zero se desconhecido.
	ResetAt time.Time

	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}

// Limiter decide se mais uma requisição para a chave é permitida agora.
//
// Observação: a implementação pode ser janela fixa, token-bucket, etc.
type Limiter interface {
	Allow(ctx context.Context, key Key) (Decision, error)
}

// Counter é o contador de janela fixa por chave.
//
// Incr soma 1 ao contador da janela corrente e retorna o novo valor e o fim
// da janela. Se não existe janela para a chave, ou a anterior já terminou,
// uma nova começa agora com contagem 1.
//
// A implementação pode ficar em memória, Redis, etc.
type Counter interface {
	Incr(ctx context.Context, key Key, window time.Duration) (count int64, resetAt time.Time, err error)
}
