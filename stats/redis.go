package stats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis grava contadores em hashes:
//
//	<prefix>:total               outcome -> n
//	<prefix>:minute:YYYYMMDDhhmm outcome -> n (expira em ttl)
//	<prefix>:route               "GET /api/weather:outcome" -> n
//	<prefix>:key:<ip>            outcome -> n (opcional, expira em ttl)
type Redis struct {
	rdb redis.Cmdable

	prefix string
	// ttl aplica apenas em chaves de série temporal / por key.
	// total é cumulativo e não expira.
	ttl time.Duration

	bucket string // "minute" (padrão) ou "none"

	trackKeys bool
}

type RedisOption func(*Redis)

func WithPrefix(prefix string) RedisOption {
	return func(s *Redis) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithTTL(d time.Duration) RedisOption {
	return func(s *Redis) { s.ttl = d }
}

func WithBucket(bucket string) RedisOption {
	return func(s *Redis) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithRedisTrackKeys(track bool) RedisOption {
	return func(s *Redis) { s.trackKeys = track }
}

func NewRedis(rdb redis.Cmdable, opts ...RedisOption) *Redis {
	s := &Redis{
		rdb:    rdb,
		prefix: "weather:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Redis) Record(ctx context.Context, ev Event) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := string(ev.Outcome)

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":total", field, 1)

	if s.bucket == "minute" {
		bucketKey := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
		pipe.HIncrBy(ctx, bucketKey, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, bucketKey, s.ttl)
		}
	}

	routeField := strings.TrimSpace(strings.TrimSpace(ev.Method) + " " + strings.TrimSpace(ev.Path))
	if routeField != "" {
		pipe.HIncrBy(ctx, s.prefix+":route", routeField+":"+field, 1)
	}

	if s.trackKeys {
		if k := strings.TrimSpace(ev.Key); k != "" {
			keyKey := s.prefix + ":key:" + k
			pipe.HIncrBy(ctx, keyKey, field, 1)
			if s.ttl > 0 {
				pipe.Expire(ctx, keyKey, s.ttl)
			}
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}
