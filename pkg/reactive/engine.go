package reactive

import (
	"errors"

	"github.com/rs/zerolog"
)

var ErrEngineClosed = errors.New("reactive: engine is closed")

// Engine holds the evaluation context shared by every dependency, observer and
// watcher created through it: the watcher currently collecting dependencies and
// the stack of watchers suspended beneath it.
//
// An Engine is not safe for concurrent use. Confine it to one goroutine.
type Engine struct {
	target  *Watcher
	stack   []*Watcher
	log     zerolog.Logger
	metrics *Metrics
	closed  bool
}

type Option func(*Engine)

// WithLogger routes evaluation and callback failures to the given logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithMetrics records engine activity on m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func Start(opts ...Option) *Engine {
	eng := &Engine{
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// Close stops the engine from delivering notifications.
func (e *Engine) Close() error {
	if e.closed {
		return ErrEngineClosed
	}
	e.closed = true
	return nil
}

// Logger returns the logger failures are reported to.
func (e *Engine) Logger() zerolog.Logger {
	return e.log
}

// Target returns the watcher currently collecting dependencies, or nil.
func (e *Engine) Target() *Watcher {
	return e.target
}

// PushTarget makes w the current target and saves the previous one. A nil w
// suspends collection until the matching PopTarget.
func (e *Engine) PushTarget(w *Watcher) {
	e.stack = append(e.stack, e.target)
	e.target = w
}

// PopTarget restores the target saved by the last PushTarget.
func (e *Engine) PopTarget() {
	n := len(e.stack)
	if n == 0 {
		e.target = nil
		return
	}
	e.target = e.stack[n-1]
	e.stack[n-1] = nil
	e.stack = e.stack[:n-1]
}

// Untracked runs fn without recording any dependency.
func (e *Engine) Untracked(fn func()) {
	e.withTarget(nil, fn)
}

func (e *Engine) withTarget(w *Watcher, fn func()) {
	e.PushTarget(w)
	defer e.PopTarget()
	fn()
}
