package upstream

import (
	"context"
	"time"
)

// Slots limita quantas chamadas ao upstream ficam em voo ao mesmo tempo.
//
// É um semáforo simples baseado em channel. Um Slots nil não limita nada.
type Slots struct {
	sem            chan struct{}
	acquireTimeout time.Duration
}

// NewSlots cria um semáforo com capacidade max.
//   - Se acquireTimeout <= 0, Acquire espera até o ctx encerrar.
//   - Se acquireTimeout > 0, espera no máximo esse tempo.
//
// max <= 0 devolve nil (sem limite).
func NewSlots(max int, acquireTimeout time.Duration) *Slots {
	if max <= 0 {
		return nil
	}
	return &Slots{sem: make(chan struct{}, max), acquireTimeout: acquireTimeout}
}

// Acquire tenta adquirir uma vaga.
// Retorna (release, ok). Se ok=false, nenhuma vaga foi adquirida.
// release deve ser chamada exatamente uma vez.
func (s *Slots) Acquire(ctx context.Context) (func(), bool) {
	if s == nil {
		return func() {}, true
	}

	if s.acquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.acquireTimeout)
		defer cancel()
	}

	select {
	case s.sem <- struct{}{}:
		return func() { <-s.sem }, true
	case <-ctx.Done():
		return nil, false
	}
}

// InFlight retorna quantas vagas estão ocupadas agora.
func (s *Slots) InFlight() int {
	if s == nil {
		return 0
	}
	return len(s.sem)
}
