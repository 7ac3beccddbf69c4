package application

import (
	"context"
	"time"

	"weather-gateway/middleware/ratelimit/domain"
)

// Service concentra a regra de aplicação do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Limiter domain.Limiter
	// RetryAfter é usado quando o limiter bloqueia sem informar quando liberar.
	RetryAfter time.Duration
}

// Decide retorna a decisão para a chave.
//
// Se o limiter falhar (ex.: Redis fora), a requisição é liberada e o erro
// é devolvido para quem chamou registrar.
func (s Service) Decide(ctx context.Context, key domain.Key) (domain.Decision, error) {
	if s.Limiter == nil {
		return domain.Decision{Allowed: true}, nil
	}
	if s.RetryAfter <= 0 {
		s.RetryAfter = 1 * time.Second
	}

	dec, err := s.Limiter.Allow(ctx, key)
	if err != nil {
		return domain.Decision{Allowed: true}, err
	}
	if !dec.Allowed && dec.RetryAfter <= 0 {
		dec.RetryAfter = s.RetryAfter
	}
	return dec, nil
}
