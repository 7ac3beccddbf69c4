// Package cache guarda respostas do upstream por chave (URL completa da
// requisição) com TTL por entrada.
package cache

import (
	"context"
	"time"
)

// Store é a interface do cache de respostas.
//
// Get nunca devolve uma entrada depois do seu TTL. Set sobrescreve a entrada
// existente e reinicia o TTL.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Purge(ctx context.Context)
}
