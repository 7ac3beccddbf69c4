package ratelimit

import (
	"io"
	"net/http"
	"time"

	"weather-gateway/middleware/httpx"
	"weather-gateway/middleware/ratelimit/application"
	"weather-gateway/middleware/ratelimit/domain"
	"weather-gateway/stats"

	"go.uber.org/zap"
)

// DefaultMessage é o corpo text/plain devolvido no 429.
const DefaultMessage = "Too many requests from this IP, please try again after a minute"

type Options struct {
	Limiter             domain.Limiter
	Stats               stats.Recorder
	Logger              *zap.Logger
	KeyFn               httpx.KeyFunc
	TrustXForwardedFor  bool
	RejectStatus        int
	RejectMessage       string
	RetryAfter          time.Duration
	AddRateLimitHeaders bool
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.RejectMessage == "" {
		opts.RejectMessage = DefaultMessage
	}
	if opts.RetryAfter == 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.KeyFn == nil {
		opts.KeyFn = httpx.ClientIP(opts.TrustXForwardedFor)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	svc := application.Service{
		Limiter:    opts.Limiter,
		RetryAfter: opts.RetryAfter,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)

			dec, err := svc.Decide(r.Context(), domain.Key(key))
			if err != nil {
				// fail-open: sem contador não dá para decidir, deixa passar
				opts.Logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			}

			if opts.AddRateLimitHeaders && dec.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", formatInt64(dec.Limit))
				w.Header().Set("X-RateLimit-Remaining", formatInt64(dec.Remaining))
				if !dec.ResetAt.IsZero() {
					w.Header().Set("X-RateLimit-Reset", formatInt64(dec.ResetAt.Unix()))
				}
			}

			if !dec.Allowed {
				stats.Record(r.Context(), opts.Stats, stats.Event{
					Key:     key,
					Outcome: stats.RateLimited,
					Method:  r.Method,
					Path:    r.URL.Path,
				})
				w.Header().Set("Retry-After", formatSeconds(dec.RetryAfter))
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.WriteHeader(opts.RejectStatus)
				_, _ = io.WriteString(w, opts.RejectMessage)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
