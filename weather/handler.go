// Package weather implementa o endpoint GET /api/weather: cache de respostas
// na frente do upstream, com uma única busca por chave em voo.
package weather

import (
	"context"
	"net/http"
	"time"

	"weather-gateway/cache"
	"weather-gateway/middleware/accesslog"
	"weather-gateway/middleware/httpx"
	"weather-gateway/stats"
	"weather-gateway/upstream"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// FetchFailedMessage é o erro genérico devolvido ao cliente em qualquer falha
// do upstream. O motivo real só vai para o log.
const FetchFailedMessage = "Failed to fetch data from Weather API"

const (
	DefaultTTL  = 300 * time.Second
	CacheHeader = "X-Cache"
)

type Options struct {
	Cache   cache.Store
	Fetcher upstream.Fetcher
	TTL     time.Duration
	// DefaultCity é usada quando ?city= vem vazio ou ausente.
	DefaultCity string
	Logger      *zap.Logger
	Stats       stats.Recorder
	KeyFn       httpx.KeyFunc
}

type Handler struct {
	opts   Options
	flight singleflight.Group
}

func NewHandler(opts Options) *Handler {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.DefaultCity == "" {
		opts.DefaultCity = upstream.DefaultCity
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.KeyFn == nil {
		opts.KeyFn = httpx.ClientIP(false)
	}
	return &Handler{opts: opts}
}

// CacheKey é a URL original da requisição (path + query).
func CacheKey(r *http.Request) string {
	return r.URL.RequestURI()
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := CacheKey(r)

	if h.opts.Cache != nil {
		if body, ok := h.opts.Cache.Get(ctx, key); ok {
			h.record(r, stats.CacheHit)
			w.Header().Set(CacheHeader, "HIT")
			httpx.WriteRawJSON(w, http.StatusOK, body)
			return
		}
		h.record(r, stats.CacheMiss)
	}

	city := r.URL.Query().Get("city")
	if city == "" {
		city = h.opts.DefaultCity
	}

	v, err, shared := h.flight.Do(key, func() (any, error) {
		// a busca é compartilhada: não pode morrer porque o primeiro cliente desistiu
		fctx := context.WithoutCancel(ctx)
		body, err := h.opts.Fetcher.Fetch(fctx, city)
		if err != nil {
			return nil, err
		}
		if h.opts.Cache != nil {
			h.opts.Cache.Set(fctx, key, body, h.opts.TTL)
		}
		return body, nil
	})
	if err != nil {
		h.opts.Logger.Error("Error fetching data from Weather API",
			zap.String("city", city),
			zap.Bool("shared", shared),
			zap.String("request_id", accesslog.RequestIDFromContext(ctx)),
			zap.Error(err),
		)
		h.record(r, stats.UpstreamError)
		httpx.WriteError(w, http.StatusInternalServerError, FetchFailedMessage)
		return
	}

	h.record(r, stats.Served)
	w.Header().Set(CacheHeader, "MISS")
	httpx.WriteRawJSON(w, http.StatusOK, v.([]byte))
}

func (h *Handler) record(r *http.Request, o stats.Outcome) {
	stats.Record(r.Context(), h.opts.Stats, stats.Event{
		Key:     h.opts.KeyFn(r),
		Outcome: o,
		Method:  r.Method,
		Path:    r.URL.Path,
	})
}
