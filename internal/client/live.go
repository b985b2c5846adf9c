package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"medilocator/internal/search"
)

// SearchFunc ejecuta una búsqueda para term. Debe respetar ctx: se cancela
// cuando una búsqueda más nueva la reemplaza.
type SearchFunc[T any] func(ctx context.Context, term string) (T, error)

// Result es lo que entrega LiveSearch. Issued=false cuando el término vino
// vacío y no se llamó a la búsqueda.
type Result[T any] struct {
	Ticket uint64
	Term   string
	Issued bool
	Value  T
	Err    error
}

// LiveSearch es búsqueda mientras se escribe: espera debounce desde la última
// tecla, dispara con un ticket nuevo, cancela la búsqueda anterior y solo
// entrega resultados cuyo ticket sigue vigente.
//
// Results tiene buffer 1 y guarda solo el último resultado: si el consumidor
// se atrasa, los viejos se pisan.
type LiveSearch[T any] struct {
	fn       SearchFunc[T]
	debounce time.Duration
	tickets  search.Tickets

	mu       sync.Mutex
	gen      uint64
	timer    *time.Timer
	inflight context.CancelFunc
	closed   bool

	base    context.Context
	stop    context.CancelFunc
	results chan Result[T]
}

func NewLiveSearch[T any](ctx context.Context, fn SearchFunc[T], debounce time.Duration) *LiveSearch[T] {
	base, stop := context.WithCancel(ctx)
	return &LiveSearch[T]{
		fn:       fn,
		debounce: debounce,
		base:     base,
		stop:     stop,
		results:  make(chan Result[T], 1),
	}
}

func (l *LiveSearch[T]) Results() <-chan Result[T] {
	return l.results
}

// Type registra el término actual. Un término en blanco invalida lo pendiente
// y entrega enseguida un resultado no emitido.
func (l *LiveSearch[T]) Type(term string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	l.gen++
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}

	if strings.TrimSpace(term) == "" {
		ticket := l.tickets.Next()
		l.cancelInflight()
		l.deliverLocked(Result[T]{Ticket: ticket, Term: term})
		return
	}

	gen := l.gen
	l.timer = time.AfterFunc(l.debounce, func() { l.fire(gen, term) })
}

func (l *LiveSearch[T]) fire(gen uint64, term string) {
	l.mu.Lock()
	if l.closed || gen != l.gen {
		l.mu.Unlock()
		return
	}
	ticket := l.tickets.Next()
	l.cancelInflight()
	ctx, cancel := context.WithCancel(l.base)
	l.inflight = cancel
	l.mu.Unlock()

	v, err := l.fn(ctx, term)

	l.mu.Lock()
	defer l.mu.Unlock()
	cancel()
	if l.tickets.Current(ticket) {
		l.inflight = nil
	}
	l.deliverLocked(Result[T]{Ticket: ticket, Term: term, Issued: true, Value: v, Err: err})
}

// Close corta la búsqueda en curso y cierra Results.
func (l *LiveSearch[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true
	if l.timer != nil {
		l.timer.Stop()
	}
	l.cancelInflight()
	l.stop()
	close(l.results)
}

func (l *LiveSearch[T]) cancelInflight() {
	if l.inflight != nil {
		l.inflight()
		l.inflight = nil
	}
}

// deliverLocked descarta resultados viejos; requiere l.mu.
func (l *LiveSearch[T]) deliverLocked(r Result[T]) {
	if l.closed || !l.tickets.Current(r.Ticket) {
		return
	}
	select {
	case <-l.results:
	default:
	}
	l.results <- r
}
