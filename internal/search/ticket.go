package search

import "sync/atomic"

// Tickets emite números de solicitud crecientes. El llamador guarda el ticket
// al disparar una búsqueda y descarta el resultado si ya no es el vigente
// (el usuario siguió escribiendo).
type Tickets struct {
	last atomic.Uint64
}

// Next emite un ticket nuevo y lo marca como vigente.
func (t *Tickets) Next() uint64 {
	return t.last.Add(1)
}

// Current indica si ticket sigue siendo el último emitido.
func (t *Tickets) Current(ticket uint64) bool {
	return t.last.Load() == ticket
}
