// Package auth implementa o gate de API key do gateway: um header com um
// segredo compartilhado, comparado com o valor configurado.
package auth

import (
	"crypto/subtle"
	"net/http"

	"weather-gateway/middleware/httpx"
	"weather-gateway/stats"
)

// DefaultHeader é o header que a camada de ingress preenche com a API key.
const DefaultHeader = "weather"

type Options struct {
	// Header é o nome do header com a chave. Padrão: DefaultHeader.
	Header string
	// Secret é o valor esperado. Vazio rejeita tudo.
	Secret string
	Stats  stats.Recorder
	KeyFn  httpx.KeyFunc
}

// Middleware rejeita com 401 {"error":"Unauthorized"} quando o header não bate
// exatamente com o segredo. A comparação é em tempo constante.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.Header == "" {
		opts.Header = DefaultHeader
	}
	if opts.KeyFn == nil {
		opts.KeyFn = httpx.ClientIP(false)
	}
	secret := []byte(opts.Secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !Valid(r.Header.Get(opts.Header), secret) {
				stats.Record(r.Context(), opts.Stats, stats.Event{
					Key:     opts.KeyFn(r),
					Outcome: stats.Unauthorized,
					Method:  r.Method,
					Path:    r.URL.Path,
				})
				httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Valid compara o valor recebido com o segredo. Segredo vazio nunca é válido.
func Valid(got string, secret []byte) bool {
	if len(secret) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), secret) == 1
}
