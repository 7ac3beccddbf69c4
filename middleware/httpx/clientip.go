package httpx

import (
	"net"
	"net/http"
	"strings"
)

// KeyFunc extrai a chave que identifica o cliente na requisição.
type KeyFunc func(r *http.Request) string

// ClientIP identifica o cliente pelo IP. Com trustXFF, usa o primeiro hop do
// X-Forwarded-For (só faz sentido atrás de um proxy confiável).
func ClientIP(trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if trustXFF {
			// pega o primeiro IP do X-Forwarded-For (cliente original)
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
		}

		// fallback: RemoteAddr
		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}
