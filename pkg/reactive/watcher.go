package reactive

import (
	"github.com/rs/xid"
	"golang.org/x/xerrors"
)

// ReadFunc is the expression a Watcher tracks. Every reactive read it performs
// becomes a dependency of the watcher.
type ReadFunc func() (any, error)

// Callback receives the watcher value after each successful re-evaluation.
type Callback func(newValue, oldValue any) error

// Result is the outcome of one watcher evaluation.
type Result struct {
	Value any
	Err   error
}

const valueKey = "value"

// Watcher evaluates a ReadFunc, subscribes to every dependency the evaluation
// touched and re-evaluates whenever one of them notifies.
type Watcher struct {
	id        xid.ID
	engine    *Engine
	read      ReadFunc
	callbacks []Callback
	deps      []*Dependency
	value     any

	// holder republishes value as a reactive property for watchable
	// watchers, so other watchers can depend on it.
	holder *Object
}

// NewWatcher creates a watcher and evaluates read immediately. A watchable
// watcher exposes its value as a reactive cell, which is how computed values
// feed other watchers.
func (e *Engine) NewWatcher(read ReadFunc, callbacks []Callback, watchable bool) *Watcher {
	w := &Watcher{
		id:        xid.New(),
		engine:    e,
		read:      read,
		callbacks: append([]Callback(nil), callbacks...),
	}

	w.value = w.Get().Value
	if watchable {
		w.holder = NewObject()
		e.DefineReactive(w.holder, valueKey, w.value)
	}
	return w
}

func (w *Watcher) ID() xid.ID {
	return w.id
}

// Value returns the cached value of the last successful evaluation. Reading
// the value of a watchable watcher records a dependency on it.
func (w *Watcher) Value() any {
	if w.holder != nil {
		return w.holder.Get(valueKey)
	}
	return w.value
}

// Dependencies returns how many dependencies the watcher is currently
// subscribed to.
func (w *Watcher) Dependencies() int {
	n := 0
	for _, d := range w.deps {
		if d.has(w) {
			n++
		}
	}
	return n
}

// Get evaluates the read function with w as the current target. A failing or
// panicking evaluation is logged and reported in the result; the target is
// restored either way.
func (w *Watcher) Get() (res Result) {
	w.engine.withTarget(w, func() {
		defer func() {
			if r := recover(); r != nil {
				res = Result{Err: xerrors.Errorf("watcher panicked: %v", r)}
			}
		}()
		v, err := w.read()
		res = Result{Value: v, Err: err}
	})

	w.engine.metrics.evaluated(res.Err != nil)
	if res.Err != nil {
		w.engine.log.Error().Err(res.Err).
			Str("watcher", w.id.String()).
			Msg("evaluation of watcher failed")
	}
	return res
}

// AddDependency subscribes w to d unless it already is.
func (w *Watcher) AddDependency(d *Dependency) {
	if d.has(w) {
		return
	}
	d.AddSubscription(w)
	for _, known := range w.deps {
		if known == d {
			return
		}
	}
	w.deps = append(w.deps, d)
}

// Update re-evaluates the watcher. When the evaluation fails the previous
// value is kept and no callback runs. Otherwise the new value is stored and
// every callback is invoked with the new and old values, even when they are
// equal. Watchers depending on a watchable watcher only rerun when its value
// changes.
func (w *Watcher) Update() {
	res := w.Get()
	if res.Err != nil {
		return
	}

	old := w.value
	w.value = res.Value
	if w.holder != nil {
		w.holder.Set(valueKey, res.Value)
	}

	w.invokeCallbacks(res.Value, old)
}

// AddCallback registers cb for every future re-evaluation.
func (w *Watcher) AddCallback(cb Callback) {
	w.callbacks = append(w.callbacks, cb)
}

func (w *Watcher) invokeCallbacks(value, old any) {
	for i, cb := range w.callbacks {
		if err := runCallback(cb, value, old); err != nil {
			w.engine.metrics.callbackFailed()
			w.engine.log.Error().Err(err).
				Str("watcher", w.id.String()).
				Int("callback", i).
				Msg("callback for watcher failed")
		}
	}
}

func runCallback(cb Callback, value, old any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = xerrors.Errorf("callback panicked: %v", r)
		}
	}()
	return cb(value, old)
}
