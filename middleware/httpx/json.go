// Package httpx reúne helpers de resposta compartilhados pelos middlewares e handlers.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorBody é o formato {"error": "..."} usado em todas as respostas de erro JSON.
type ErrorBody struct {
	Error string `json:"error"`
}

// WriteJSON serializa v como JSON com o status informado.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	WriteRawJSON(w, status, body)
}

// WriteError escreve {"error": msg}.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorBody{Error: msg})
}

// WriteRawJSON escreve bytes que já são JSON, sem reserializar.
func WriteRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
