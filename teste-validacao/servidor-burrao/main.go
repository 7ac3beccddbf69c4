// servidor-burrao imita o endpoint /data/2.5/weather do OpenWeatherMap para
// validar o gateway na mão, sem gastar cota do provedor:
//
//	go run ./teste-validacao/servidor-burrao
//	UPSTREAM_BASE_URL=http://localhost:8081/data/2.5/weather API_KEY=k go run ./cmd/gateway
//	curl -H 'weather: k' 'http://localhost:3000/api/weather?city=Paris'
//
// GET /calls mostra quantas vezes o upstream foi chamado (para conferir o cache)
// e POST /fail?on=true|false liga/desliga respostas 500.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	var calls atomic.Int64
	var failing atomic.Bool

	mux := http.NewServeMux()
	mux.HandleFunc("GET /data/2.5/weather", func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		city := r.URL.Query().Get("q")
		logger.Info("weather request", zap.String("city", city), zap.Int64("call", n))

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if r.URL.Query().Get("appid") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"cod": 401, "message": "Invalid API key."})
			return
		}
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{"cod": 500, "message": "simulated failure"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name": city,
			"cod":  200,
			"dt":   time.Now().Unix(),
			"main": map[string]any{"temp": 288.15, "humidity": 60},
		})
	})
	mux.HandleFunc("GET /calls", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strconv.FormatInt(calls.Load(), 10) + "\n"))
	})
	mux.HandleFunc("POST /fail", func(w http.ResponseWriter, r *http.Request) {
		on, _ := strconv.ParseBool(r.URL.Query().Get("on"))
		failing.Store(on)
		w.WriteHeader(http.StatusNoContent)
	})

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}
	logger.Info("fake weather api running", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
