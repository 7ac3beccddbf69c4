package application

import (
	"context"
	"time"

	"weather-gateway/middleware/ratelimit/domain"
)

// FixedWindow implementa domain.Limiter com janela fixa sobre um domain.Counter.
//
// Toda requisição conta, inclusive as bloqueadas: quem insiste durante a janela
// continua bloqueado até ela terminar.
type FixedWindow struct {
	Counter domain.Counter
	Limit   int64
	Window  time.Duration

	now func() time.Time
}

type FixedWindowOption func(*FixedWindow)

// WithClock troca o relógio usado no Retry-After. Deve ser o mesmo do Counter,
// já que resetAt vem dele.
func WithClock(now func() time.Time) FixedWindowOption {
	return func(f *FixedWindow) { f.now = now }
}

func NewFixedWindow(counter domain.Counter, limit int64, window time.Duration, opts ...FixedWindowOption) *FixedWindow {
	f := &FixedWindow{Counter: counter, Limit: limit, Window: window, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *FixedWindow) Allow(ctx context.Context, key domain.Key) (domain.Decision, error) {
	count, resetAt, err := f.Counter.Incr(ctx, key, f.Window)
	if err != nil {
		return domain.Decision{}, err
	}

	remaining := f.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	dec := domain.Decision{
		Allowed:   count <= f.Limit,
		Limit:     f.Limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
	if !dec.Allowed {
		now := time.Now
		if f.now != nil {
			now = f.now
		}
		dec.RetryAfter = resetAt.Sub(now())
		if dec.RetryAfter < 0 {
			dec.RetryAfter = 0
		}
	}
	return dec, nil
}
