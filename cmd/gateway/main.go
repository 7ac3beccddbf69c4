package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// .env é opcional; variáveis já definidas no ambiente têm prioridade
	_ = godotenv.Load()

	cfg, err := readConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := newLogger(cfg.logLevel, cfg.logFormat)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("startup error", zap.Error(err))
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// maior que o timeout do upstream para a resposta 500 ainda sair
		WriteTimeout: cfg.upstreamTimeout + 30*time.Second,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if cfg.weatherAPIKey == "" {
		logger.Warn("WEATHER_API_KEY is empty; upstream calls will fail")
	}
	logger.Info("server running",
		zap.String("addr", cfg.listenAddr),
		zap.String("upstream", cfg.upstreamBaseURL),
		zap.Duration("upstream_timeout", cfg.upstreamTimeout),
	)
	logger.Info("rate limit",
		zap.String("strategy", cfg.rateStrategy),
		zap.String("backend", cfg.rateBackend),
		zap.Int64("limit", cfg.rateLimit),
		zap.Duration("window", cfg.rateWindow),
		zap.Bool("trust_xff", cfg.trustXFF),
	)
	logger.Info("cache",
		zap.String("backend", cfg.cacheBackend),
		zap.Duration("ttl", cfg.cacheTTL),
		zap.Int("max_entries", cfg.cacheMaxEntries),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}

	zcfg := zap.NewProductionConfig()
	if format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.EncoderConfig.TimeKey = "time"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zcfg.Build()
}
