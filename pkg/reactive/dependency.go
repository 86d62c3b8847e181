package reactive

import "sync/atomic"

var dependencyIDs uint64

// Dependency is the subscriber list of one observable cell: a property, a
// container, or anything a caller wants to make trackable.
type Dependency struct {
	id     uint64
	engine *Engine
	subs   []*Watcher
}

func (e *Engine) NewDependency() *Dependency {
	return &Dependency{
		id:     atomic.AddUint64(&dependencyIDs, 1),
		engine: e,
	}
}

// ID returns the unique identifier of the dependency.
func (d *Dependency) ID() uint64 {
	return d.id
}

// AddSubscription appends w without checking for duplicates. Watchers go
// through AddDependency, which does.
func (d *Dependency) AddSubscription(w *Watcher) {
	d.subs = append(d.subs, w)
}

// RemoveSubscription removes the first occurrence of w.
func (d *Dependency) RemoveSubscription(w *Watcher) {
	for i, sub := range d.subs {
		if sub == w {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)
			return
		}
	}
}

func (d *Dependency) has(w *Watcher) bool {
	for _, sub := range d.subs {
		if sub == w {
			return true
		}
	}
	return false
}

// Depend registers d with the watcher currently being evaluated, if any.
func (d *Dependency) Depend() {
	if t := d.engine.target; t != nil {
		t.AddDependency(d)
	}
}

// Notify updates every subscriber in subscription order. The list is copied
// first, so subscriptions added or removed by an update take effect on the
// next notification.
func (d *Dependency) Notify() {
	if d.engine.closed {
		d.engine.log.Debug().Uint64("dependency", d.id).Msg("notification dropped, engine closed")
		return
	}
	subs := make([]*Watcher, len(d.subs))
	copy(subs, d.subs)

	d.engine.metrics.notified(len(subs))
	for _, sub := range subs {
		sub.Update()
	}
}

// Subscriptions returns a copy of the current subscribers.
func (d *Dependency) Subscriptions() []*Watcher {
	subs := make([]*Watcher, len(d.subs))
	copy(subs, d.subs)
	return subs
}

func (d *Dependency) Len() int {
	return len(d.subs)
}
