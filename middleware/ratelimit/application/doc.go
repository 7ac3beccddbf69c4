// Package application contém os casos de uso (regras de aplicação) do rate limit.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide(ctx, key) retorna uma Decision (allow/deny + retry-after),
// e FixedWindow aplica o limite de N requisições por janela sobre um Counter.
package application
