package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"weather-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// incrWindow incrementa o contador e, só no primeiro hit da janela, define a
// expiração. Retorna {contagem, pttl}.
var incrWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

// RedisCounter é um domain.Counter de janela fixa no Redis.
//
// Permite compartilhar o limite entre várias réplicas do gateway.
type RedisCounter struct {
	rdb    redis.Scripter
	prefix string
	now    func() time.Time
}

type RedisCounterOption func(*RedisCounter)

func WithCounterPrefix(prefix string) RedisCounterOption {
	return func(c *RedisCounter) { c.prefix = strings.Trim(prefix, ":") }
}

func NewRedisCounter(rdb redis.Scripter, opts ...RedisCounterOption) *RedisCounter {
	c := &RedisCounter{
		rdb:    rdb,
		prefix: "ratelimit:window",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Incr implementa domain.Counter.
func (c *RedisCounter) Incr(ctx context.Context, key domain.Key, size time.Duration) (int64, time.Time, error) {
	res, err := incrWindow.Run(ctx, c.rdb, []string{c.prefix + ":" + string(key)}, size.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis window incr: %w", err)
	}
	if len(res) != 2 {
		return 0, time.Time{}, fmt.Errorf("redis window incr: unexpected reply %v", res)
	}
	return res[0], c.now().Add(time.Duration(res[1]) * time.Millisecond), nil
}
