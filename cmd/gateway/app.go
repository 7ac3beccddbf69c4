package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"weather-gateway/cache"
	"weather-gateway/middleware/accesslog"
	"weather-gateway/middleware/auth"
	"weather-gateway/middleware/httpx"
	"weather-gateway/middleware/ratelimit"
	"weather-gateway/middleware/ratelimit/application"
	"weather-gateway/middleware/ratelimit/domain"
	"weather-gateway/middleware/ratelimit/infra"
	"weather-gateway/stats"
	"weather-gateway/upstream"
	"weather-gateway/weather"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/dnscache"
	"go.uber.org/zap"
)

// app agrupa o handler HTTP pronto e o que precisa ser fechado no shutdown.
type app struct {
	handler http.Handler
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// newApp monta o pipeline: auth -> rate limit -> cache -> upstream.
//
// Goroutines de manutenção (janitors, refresh de DNS) param quando ctx encerrar.
func newApp(ctx context.Context, cfg config, log *zap.Logger) (*app, error) {
	a := &app{}

	var rdb *redis.Client
	if cfg.needsRedis() {
		opt, err := redis.ParseURL(cfg.redisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb = redis.NewClient(opt)
		a.closers = append(a.closers, rdb.Close)

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err = rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	rec := buildStats(cfg, reg, rdb)
	keyFn := httpx.ClientIP(cfg.trustXFF)

	limiter := buildLimiter(ctx, cfg, rdb)

	store, err := buildCache(cfg, rdb, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	resolver := &dnscache.Resolver{}
	upstream.StartResolverRefresh(ctx, resolver, cfg.dnsRefresh)
	client := &http.Client{
		Transport: upstream.NewTransport(resolver),
		Timeout:   cfg.upstreamTimeout,
	}
	// a busca roda sem o cancelamento do cliente; a espera por vaga precisa de teto
	acquireTimeout := cfg.upstreamAcquireTimeout
	if acquireTimeout <= 0 {
		acquireTimeout = cfg.upstreamTimeout
	}
	fetcher := upstream.NewOpenWeather(
		client,
		cfg.upstreamBaseURL,
		cfg.weatherAPIKey,
		upstream.NewSlots(cfg.upstreamMaxInflight, acquireTimeout),
	)

	weatherHandler := weather.NewHandler(weather.Options{
		Cache:       store,
		Fetcher:     fetcher,
		TTL:         cfg.cacheTTL,
		DefaultCity: cfg.defaultCity,
		Logger:      log,
		Stats:       rec,
		KeyFn:       keyFn,
	})

	r := chi.NewRouter()
	r.Use(accesslog.RequestID)
	r.Use(accesslog.Logger(log))
	r.Use(accesslog.Recover(log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.metricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	// tudo fora das rotas operacionais passa por auth -> rate limit, inclusive
	// 404/405: o limite é por IP, não por rota
	api := chi.NewRouter()
	api.Use(auth.Middleware(auth.Options{
		Header: cfg.authHeader,
		Secret: cfg.apiKey,
		Stats:  rec,
		KeyFn:  keyFn,
	}))
	api.Use(ratelimit.Middleware(ratelimit.Options{
		Limiter:             limiter,
		Stats:               rec,
		Logger:              log,
		KeyFn:               keyFn,
		AddRateLimitHeaders: cfg.addHeaders,
	}))
	api.Method(http.MethodGet, "/api/weather", weatherHandler)
	r.Mount("/", api)

	a.handler = r
	return a, nil
}

func buildLimiter(ctx context.Context, cfg config, rdb *redis.Client) domain.Limiter {
	if cfg.rateStrategy == strategyTokenBucket {
		rps := float64(cfg.rateLimit) / cfg.rateWindow.Seconds()
		tb := infra.NewTokenBucket(rps, int(cfg.rateLimit))
		tb.StartJanitor(ctx)
		return tb
	}

	var counter domain.Counter
	if cfg.rateBackend == backendRedis {
		counter = infra.NewRedisCounter(rdb)
	} else {
		mc := infra.NewMemoryCounter()
		mc.StartJanitor(ctx)
		counter = mc
	}
	return application.NewFixedWindow(counter, cfg.rateLimit, cfg.rateWindow)
}

func buildCache(cfg config, rdb *redis.Client, log *zap.Logger) (cache.Store, error) {
	if cfg.cacheBackend == backendRedis {
		return cache.NewRedis(rdb, cache.WithLogger(log)), nil
	}
	return cache.NewMemory(cfg.cacheMaxEntries, cfg.cacheTTL)
}

func buildStats(cfg config, reg prometheus.Registerer, rdb *redis.Client) stats.Recorder {
	var recs stats.Multi
	if cfg.metricsEnabled {
		recs = append(recs, stats.NewPrometheus(reg))
	}
	switch cfg.statsBackend {
	case backendMemory:
		recs = append(recs, stats.NewMemory(stats.WithTrackKeys(cfg.statsTrackKeys)))
	case backendRedis:
		recs = append(recs, stats.NewRedis(rdb, stats.WithRedisTrackKeys(cfg.statsTrackKeys)))
	}
	if len(recs) == 0 {
		return nil
	}
	return recs
}
