// utilitário pequeno para formatação rápida/consistente de valores numéricos em headers.
//    Evita puxar fmt só para formatação simples.

package ratelimit

import (
	"strconv"
	"time"
)

func formatInt64(v int64) string { return strconv.FormatInt(v, 10) }

// formatSeconds arredonda para cima: Retry-After nunca deve prometer antes da hora.
func formatSeconds(d time.Duration) string {
	if d <= 0 {
		return "0"
	}
	s := int64(d / time.Second)
	if d%time.Second != 0 {
		s++
	}
	return formatInt64(s)
}
