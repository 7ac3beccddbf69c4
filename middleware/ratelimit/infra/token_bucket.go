package infra

import (
	"context"
	"sync"
	"time"

	"weather-gateway/middleware/ratelimit/domain"

	"golang.org/x/time/rate"
)

// TokenBucket é um domain.Limiter alternativo baseado em token-bucket
// (x/time/rate), com um limiter por chave e limpeza periódica.
//
// Usado quando RATE_STRATEGY=token-bucket; não expõe contagem por janela.
type TokenBucket struct {
	mu           sync.Mutex
	entries      map[string]*bucketEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type bucketEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type TokenBucketOption func(*TokenBucket)

func WithIdleTTL(d time.Duration) TokenBucketOption {
	return func(s *TokenBucket) { s.idleTTL = d }
}

func WithBucketCleanupEvery(d time.Duration) TokenBucketOption {
	return func(s *TokenBucket) { s.cleanupEvery = d }
}

func NewTokenBucket(rps float64, burst int, opts ...TokenBucketOption) *TokenBucket {
	s := &TokenBucket{
		entries:      make(map[string]*bucketEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow implementa domain.Limiter.
func (s *TokenBucket) Allow(_ context.Context, key domain.Key) (domain.Decision, error) {
	lim := s.limiter(string(key))

	now := time.Now()
	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return domain.Decision{Allowed: false}, nil
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return domain.Decision{Allowed: false, RetryAfter: d}, nil
	}
	return domain.Decision{Allowed: true}, nil
}

func (s *TokenBucket) limiter(key string) *rate.Limiter {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(s.rps, s.burst)
	s.entries[key] = &bucketEntry{lim: lim, lastSeen: now}
	return lim
}

func (s *TokenBucket) Cleanup() {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa chaves inativas periodicamente.
// Pare cancelando o contexto.
func (s *TokenBucket) StartJanitor(ctx DoneContext) {
	startJanitor(ctx, s.cleanupEvery, s.Cleanup)
}
