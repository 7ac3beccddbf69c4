package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type config struct {
	listenAddr string

	apiKey     string
	authHeader string

	rateLimit    int64
	rateWindow   time.Duration
	rateStrategy string
	rateBackend  string
	trustXFF     bool
	addHeaders   bool

	cacheTTL        time.Duration
	cacheBackend    string
	cacheMaxEntries int

	weatherAPIKey          string
	upstreamBaseURL        string
	upstreamTimeout        time.Duration
	upstreamMaxInflight    int
	upstreamAcquireTimeout time.Duration
	dnsRefresh             time.Duration
	defaultCity            string

	redisURL string

	statsBackend   string
	statsTrackKeys bool
	metricsEnabled bool

	logLevel  string
	logFormat string
}

const (
	strategyFixedWindow = "fixed-window"
	strategyTokenBucket = "token-bucket"

	backendMemory = "memory"
	backendRedis  = "redis"
	backendNone   = "none"
)

func readConfig() (config, error) {
	// valores presentes mas ilegíveis são erro; ausentes usam o padrão
	var errs []error
	ints := collect[int](&errs)
	bools := collect[bool](&errs)
	durations := collect[time.Duration](&errs)

	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":"+getenvDefault("PORT", "3000"))

	cfg.apiKey = os.Getenv("API_KEY")
	cfg.authHeader = getenvDefault("AUTH_HEADER", "weather")

	cfg.rateLimit = int64(ints(getenvIntDefault("RATE_LIMIT", 5)))
	cfg.rateWindow = durations(getenvDurationDefault("RATE_WINDOW", 60*time.Second))
	cfg.rateStrategy = strings.ToLower(getenvDefault("RATE_STRATEGY", strategyFixedWindow))
	cfg.rateBackend = strings.ToLower(getenvDefault("RATE_BACKEND", backendMemory))
	cfg.trustXFF = bools(getenvBoolDefault("TRUST_XFF", false))
	cfg.addHeaders = bools(getenvBoolDefault("ADD_RATELIMIT_HEADERS", false))

	// CACHE_DURATION é em segundos (compatível com o deploy antigo)
	cfg.cacheTTL = time.Duration(ints(getenvIntDefault("CACHE_DURATION", 300))) * time.Second
	cfg.cacheBackend = strings.ToLower(getenvDefault("CACHE_BACKEND", backendMemory))
	cfg.cacheMaxEntries = ints(getenvIntDefault("CACHE_MAX_ENTRIES", 10000))

	cfg.weatherAPIKey = os.Getenv("WEATHER_API_KEY")
	cfg.upstreamBaseURL = getenvDefault("UPSTREAM_BASE_URL", "http://api.openweathermap.org/data/2.5/weather")
	cfg.upstreamTimeout = durations(getenvDurationDefault("UPSTREAM_TIMEOUT", 10*time.Second))
	cfg.upstreamMaxInflight = ints(getenvIntDefault("UPSTREAM_MAX_INFLIGHT", 100))
	cfg.upstreamAcquireTimeout = durations(getenvDurationDefault("UPSTREAM_ACQUIRE_TIMEOUT", 0))
	cfg.dnsRefresh = durations(getenvDurationDefault("DNS_REFRESH", 5*time.Minute))
	cfg.defaultCity = getenvDefault("DEFAULT_CITY", "London")

	cfg.redisURL = os.Getenv("REDIS_URL")

	cfg.statsBackend = strings.ToLower(getenvDefault("STATS_BACKEND", backendNone))
	cfg.statsTrackKeys = bools(getenvBoolDefault("STATS_TRACK_KEYS", false))
	cfg.metricsEnabled = bools(getenvBoolDefault("METRICS_ENABLED", true))

	cfg.logLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.logFormat = strings.ToLower(getenvDefault("LOG_FORMAT", "json"))

	if len(errs) > 0 {
		return config{}, errors.Join(errs...)
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (cfg config) validate() error {
	if strings.TrimSpace(cfg.apiKey) == "" {
		return errors.New("API_KEY is required")
	}
	if cfg.rateLimit <= 0 {
		return errors.New("RATE_LIMIT must be > 0")
	}
	if cfg.rateWindow <= 0 {
		return errors.New("RATE_WINDOW must be > 0")
	}
	switch cfg.rateStrategy {
	case strategyFixedWindow, strategyTokenBucket:
	default:
		return fmt.Errorf("RATE_STRATEGY must be %q or %q", strategyFixedWindow, strategyTokenBucket)
	}
	if err := oneOf("RATE_BACKEND", cfg.rateBackend, backendMemory, backendRedis); err != nil {
		return err
	}
	if cfg.rateStrategy == strategyTokenBucket && cfg.rateBackend == backendRedis {
		return errors.New("RATE_STRATEGY=token-bucket only supports RATE_BACKEND=memory")
	}
	if cfg.cacheTTL <= 0 {
		return errors.New("CACHE_DURATION must be > 0")
	}
	if err := oneOf("CACHE_BACKEND", cfg.cacheBackend, backendMemory, backendRedis); err != nil {
		return err
	}
	if cfg.cacheMaxEntries <= 0 {
		return errors.New("CACHE_MAX_ENTRIES must be > 0")
	}
	if cfg.upstreamMaxInflight < 0 {
		return errors.New("UPSTREAM_MAX_INFLIGHT must be >= 0")
	}
	if err := oneOf("STATS_BACKEND", cfg.statsBackend, backendNone, backendMemory, backendRedis); err != nil {
		return err
	}
	if cfg.needsRedis() && strings.TrimSpace(cfg.redisURL) == "" {
		return errors.New("REDIS_URL is required when a redis backend is selected")
	}
	return nil
}

func (cfg config) needsRedis() bool {
	return cfg.rateBackend == backendRedis || cfg.cacheBackend == backendRedis || cfg.statsBackend == backendRedis
}

func oneOf(name, v string, allowed ...string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s", name, strings.Join(allowed, ", "))
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// collect devolve um adaptador que guarda o erro do getenv*Default em errs e
// repassa só o valor.
func collect[T any](errs *[]error) func(T, error) T {
	return func(v T, err error) T {
		if err != nil {
			*errs = append(*errs, err)
		}
		return v
	}
}

func invalid(k, v string) error {
	return fmt.Errorf("%s: invalid value %q", k, v)
}

func getenvIntDefault(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def, invalid(k, v)
	}
	return i, nil
}

func getenvBoolDefault(k string, def bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def, invalid(k, v)
	}
	return b, nil
}

func getenvDurationDefault(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return def, invalid(k, v)
	}
	return d, nil
}
