package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis guarda as respostas no Redis (SET ... PX ttl), permitindo dividir o
// cache entre réplicas.
//
// Falhas do Redis viram miss (e são logadas): o gateway segue para o upstream.
type Redis struct {
	rdb    redis.Cmdable
	prefix string
	log    *zap.Logger
}

type RedisOption func(*Redis)

func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = strings.Trim(prefix, ":") }
}

func WithLogger(log *zap.Logger) RedisOption {
	return func(r *Redis) { r.log = log }
}

func NewRedis(rdb redis.Cmdable, opts ...RedisOption) *Redis {
	r := &Redis{
		rdb:    rdb,
		prefix: "weather:cache",
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) key(k string) string { return r.prefix + ":" + k }

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return val, true
}

func (r *Redis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	if err := r.rdb.Set(ctx, r.key(key), val, ttl).Err(); err != nil {
		r.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *Redis) Delete(ctx context.Context, key string) {
	if err := r.rdb.Del(ctx, r.key(key)).Err(); err != nil {
		r.log.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

// Purge apaga só as chaves com o prefixo do cache.
func (r *Redis) Purge(ctx context.Context) {
	iter := r.rdb.Scan(ctx, 0, r.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			r.log.Warn("cache purge failed", zap.String("key", iter.Val()), zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		r.log.Warn("cache purge scan failed", zap.Error(err))
	}
}
