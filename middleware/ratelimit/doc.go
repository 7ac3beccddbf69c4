// Package ratelimit fornece o adapter HTTP (net/http) do rate limit por IP.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (janela fixa, decisão allow/deny) sem net/http
//   - infra: implementações concretas (memória, Redis, token bucket)
//   - ratelimit (este pacote): middleware HTTP + tradução da decisão para status/headers
//
// Fluxo no gateway:
//
//   1) Extrai a chave do cliente (httpx.ClientIP: IP ou primeiro hop do X-Forwarded-For)
//   2) Chama a camada application para obter a decisão
//   3) Se bloqueado, responde 429 com mensagem text/plain e Retry-After
//   4) Se permitido, chama o próximo handler (cache + upstream)
//
// Variáveis de ambiente do binário gateway (cmd/gateway) controlam o comportamento,
// como RATE_LIMIT, RATE_WINDOW, RATE_STRATEGY e RATE_BACKEND.
package ratelimit
