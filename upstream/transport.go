package upstream

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/rs/dnscache"
)

// NewTransport devolve um *http.Transport com pool de conexões e, se resolver
// não for nil, cache de DNS.
func NewTransport(resolver *dnscache.Resolver) *http.Transport {
	t := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	if resolver != nil {
		t.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ips, err := resolver.LookupHost(ctx, host)
			if err != nil {
				return nil, err
			}
			var d net.Dialer
			var lastErr error = &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
			for _, ip := range ips {
				conn, err := d.DialContext(ctx, network, net.JoinHostPort(ip, port))
				if err == nil {
					return conn, nil
				}
				lastErr = err
			}
			return nil, lastErr
		}
	}
	return t
}

// StartResolverRefresh atualiza o cache de DNS periodicamente até o ctx encerrar.
func StartResolverRefresh(ctx context.Context, resolver *dnscache.Resolver, every time.Duration) {
	if resolver == nil || every <= 0 {
		return
	}
	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				resolver.Refresh(true)
			}
		}
	}()
}
