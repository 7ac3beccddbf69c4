// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - MemoryCounter: janela fixa por chave em memória, com janitor
//   - RedisCounter: janela fixa compartilhada via Redis (INCR + PEXPIRE atômicos)
//   - TokenBucket: token bucket por chave usando golang.org/x/time/rate
package infra
