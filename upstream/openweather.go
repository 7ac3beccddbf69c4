// Package upstream fala com o provedor de clima (OpenWeatherMap).
//
// O corpo da resposta não é interpretado: Fetch devolve os bytes como vieram
// para o gateway repassar ao cliente.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL = "http://api.openweathermap.org/data/2.5/weather"
	DefaultCity    = "London"

	// maxBodySize evita segurar respostas absurdas na memória/cache.
	maxBodySize = 1 << 20
)

var (
	ErrBusy         = errors.New("upstream: no free slot")
	ErrInvalidBody  = errors.New("upstream: response is not valid JSON")
	ErrBodyTooLarge = errors.New("upstream: response body exceeds size limit")
	ErrNoClient     = errors.New("upstream: http client not configured")
)

// StatusError é devolvido quando o provedor responde fora de 2xx.
type StatusError struct {
	Code int
	// Message é o campo "message" do corpo de erro do provedor, se houver.
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream: status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("upstream: status %d", e.Code)
}

// Fetcher busca o clima atual de uma cidade.
type Fetcher interface {
	Fetch(ctx context.Context, city string) ([]byte, error)
}

// OpenWeather implementa Fetcher para o endpoint /data/2.5/weather.
type OpenWeather struct {
	HTTP    *http.Client
	BaseURL string
	APIKey  string
	// Slots limita as chamadas simultâneas. nil = sem limite.
	Slots *Slots
}

func NewOpenWeather(client *http.Client, baseURL, apiKey string, slots *Slots) *OpenWeather {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OpenWeather{HTTP: client, BaseURL: baseURL, APIKey: apiKey, Slots: slots}
}

// URL monta a URL do provedor para a cidade.
func (o *OpenWeather) URL(city string) string {
	values := url.Values{}
	values.Set("q", city)
	values.Set("appid", o.APIKey)

	sep := "?"
	if strings.Contains(o.BaseURL, "?") {
		sep = "&"
	}
	return o.BaseURL + sep + values.Encode()
}

// Fetch faz um único GET, sem retry. O deadline vem do ctx e do Timeout do client.
func (o *OpenWeather) Fetch(ctx context.Context, city string) ([]byte, error) {
	if o.HTTP == nil {
		return nil, ErrNoClient
	}

	release, ok := o.Slots.Acquire(ctx)
	if !ok {
		return nil, ErrBusy
	}
	defer release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.URL(city), nil)
	if err != nil {
		return nil, fmt.Errorf("upstream: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.HTTP.Do(req)
	if err != nil {
		// url.Error carrega a URL com appid; não deixa a chave vazar no log
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("upstream: request: %w", err)
	}
	defer resp.Body.Close()

	// lê um byte além do limite para distinguir corpo grande de JSON truncado
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("upstream: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Code:    resp.StatusCode,
			Message: gjson.GetBytes(body, "message").String(),
		}
	}
	if len(body) > maxBodySize {
		return nil, ErrBodyTooLarge
	}
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidBody
	}
	return body, nil
}
