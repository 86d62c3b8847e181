package reactive

import (
	"fmt"
	"sort"
)

// Array is an observable sequence. Indexed reads and writes behave like a
// plain slice; the seven mutating operations Push, Pop, Shift, Unshift,
// Splice, Sort and Reverse additionally notify the array's observer and
// observe any inserted element.
type Array struct {
	items  []any
	frozen bool
	ob     *Observer
}

func NewArray(items ...any) *Array {
	a := &Array{items: make([]any, len(items))}
	copy(a.items, items)
	return a
}

// Len returns the number of elements.
func (a *Array) Len() int {
	a.depend()
	return len(a.items)
}

// At returns the element at i, or nil when i is out of range.
func (a *Array) At(i int) any {
	a.depend()
	if i < 0 || i >= len(a.items) {
		return nil
	}
	v := a.items[i]
	if a.ob != nil && a.ob.engine.target != nil {
		dependValue(v)
	}
	return v
}

// SetAt overwrites the element at i without notifying, like an index
// assignment on a plain array. Use Splice(i, 1, v) for a tracked replacement.
func (a *Array) SetAt(i int, v any) bool {
	if a.frozen || i < 0 || i >= len(a.items) {
		return false
	}
	a.items[i] = v
	return true
}

// Values returns a copy of the elements.
func (a *Array) Values() []any {
	a.depend()
	out := make([]any, len(a.items))
	copy(out, a.items)
	return out
}

func (a *Array) Freeze() {
	a.frozen = true
}

func (a *Array) IsFrozen() bool {
	return a.frozen
}

func (a *Array) depend() {
	if a.ob != nil && a.ob.engine.target != nil {
		a.ob.dep.Depend()
	}
}

// Push appends items and returns the new length.
func (a *Array) Push(items ...any) int {
	if a.frozen {
		return len(a.items)
	}
	a.items = append(a.items, items...)
	a.mutated(items)
	return len(a.items)
}

// Pop removes and returns the last element.
func (a *Array) Pop() any {
	if a.frozen {
		return nil
	}
	var v any
	if n := len(a.items); n > 0 {
		v = a.items[n-1]
		a.items[n-1] = nil
		a.items = a.items[:n-1]
	}
	a.mutated(nil)
	return v
}

// Shift removes and returns the first element.
func (a *Array) Shift() any {
	if a.frozen {
		return nil
	}
	var v any
	if len(a.items) > 0 {
		v = a.items[0]
		a.items = append(a.items[:0:0], a.items[1:]...)
	}
	a.mutated(nil)
	return v
}

// Unshift inserts items at the front and returns the new length.
func (a *Array) Unshift(items ...any) int {
	if a.frozen {
		return len(a.items)
	}
	next := make([]any, 0, len(items)+len(a.items))
	next = append(next, items...)
	a.items = append(next, a.items...)
	a.mutated(items)
	return len(a.items)
}

// Splice removes deleteCount elements starting at start, inserts items in
// their place and returns the removed elements. A negative start counts back
// from the end; both arguments are clamped to the array bounds.
func (a *Array) Splice(start, deleteCount int, items ...any) []any {
	if a.frozen {
		return nil
	}
	n := len(a.items)
	if start < 0 {
		start = max(n+start, 0)
	} else {
		start = min(start, n)
	}
	deleteCount = min(max(deleteCount, 0), n-start)

	removed := make([]any, deleteCount)
	copy(removed, a.items[start:start+deleteCount])

	next := make([]any, 0, n-deleteCount+len(items))
	next = append(next, a.items[:start]...)
	next = append(next, items...)
	next = append(next, a.items[start+deleteCount:]...)
	a.items = next

	a.mutated(items)
	return removed
}

// Sort orders the elements with less, or DefaultLess when less is nil. The
// sort is stable.
func (a *Array) Sort(less func(x, y any) bool) {
	if a.frozen {
		return
	}
	if less == nil {
		less = DefaultLess
	}
	sort.SliceStable(a.items, func(i, j int) bool {
		return less(a.items[i], a.items[j])
	})
	a.mutated(nil)
}

// Reverse reverses the elements in place.
func (a *Array) Reverse() {
	if a.frozen {
		return
	}
	for i, j := 0, len(a.items)-1; i < j; i, j = i+1, j-1 {
		a.items[i], a.items[j] = a.items[j], a.items[i]
	}
	a.mutated(nil)
}

// mutated is the interception point shared by the mutating operations.
func (a *Array) mutated(inserted []any) {
	if a.ob == nil {
		return
	}
	if len(inserted) > 0 {
		a.ob.ObserveArray(inserted)
	}
	a.ob.dep.Notify()
}

// DefaultLess orders numbers numerically, strings lexically and anything else
// by its formatted representation. Numbers sort before strings. Unlike a
// JavaScript default sort, which compares string forms, [10, 9, 1] sorts to
// [1, 9, 10].
func DefaultLess(x, y any) bool {
	fx, xnum := toFloat(x)
	fy, ynum := toFloat(y)
	switch {
	case xnum && ynum:
		return fx < fy
	case xnum != ynum:
		return xnum
	}
	return fmt.Sprint(x) < fmt.Sprint(y)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
