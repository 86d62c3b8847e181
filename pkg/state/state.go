package state

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/edgarvarela24/reactive-go/pkg/reactive"
	"github.com/rs/zerolog"
	"golang.org/x/xerrors"
)

var (
	ErrComputedConflict   = errors.New("state: computed property is already defined as a data property")
	ErrComputedCycle      = errors.New("state: computed properties depend on each other")
	ErrMissingWatchTarget = errors.New("state: watch target does not exist")
	ErrReadOnlyProperty   = errors.New("state: property is read-only")
	ErrUnknownProperty    = errors.New("state: unknown property")
	ErrInvalidPath        = errors.New("state: invalid path")
)

// ComputedFunc derives a value from the state. Every state value it reads
// becomes a dependency of the computed property.
type ComputedFunc func(s *State) (any, error)

// Options describes the initial shape of a State.
type Options struct {
	// Data is deep-copied, so later changes to the map are not seen.
	Data     map[string]any
	Computed map[string]ComputedFunc
	// Watch maps a dotted path, or the name of a computed property, to the
	// callback run when its value changes.
	Watch map[string]reactive.Callback
}

type Option func(*State)

// WithEngine builds the state on an existing engine.
func WithEngine(e *reactive.Engine) Option {
	return func(s *State) {
		s.engine = e
	}
}

// State exposes reactive data properties, computed properties and watches
// over them.
type State struct {
	engine   *reactive.Engine
	log      zerolog.Logger
	data     *reactive.Object
	computed map[string]*reactive.Watcher
	pending  map[string]ComputedFunc
	defining map[string]bool
	cycle    error
	watchers []*reactive.Watcher
}

// New builds a State from opts. Misconfiguration is reported immediately: a
// computed property shadowing data, computed properties reading each other in
// a loop, or a watch on a path that does not exist.
func New(opts Options, setters ...Option) (*State, error) {
	s := &State{
		computed: make(map[string]*reactive.Watcher),
		pending:  make(map[string]ComputedFunc),
		defining: make(map[string]bool),
	}
	for _, set := range setters {
		set(s)
	}
	if s.engine == nil {
		s.engine = reactive.Start()
	}
	s.log = s.engine.Logger().With().Str("component", "state").Logger()

	s.data = reactive.NewObject()
	if opts.Data != nil {
		s.data = reactive.FromValue(opts.Data).(*reactive.Object)
	}
	s.engine.Observe(s.data)

	for _, name := range sortedKeys(opts.Computed) {
		if s.data.Has(name) {
			return nil, xerrors.Errorf("%s: %w", name, ErrComputedConflict)
		}
		s.pending[name] = opts.Computed[name]
	}
	for _, name := range sortedKeys(opts.Computed) {
		s.defineComputed(name)
		if s.cycle != nil {
			return nil, s.cycle
		}
	}

	for _, expr := range sortedKeys(opts.Watch) {
		if err := s.Watch(expr, opts.Watch[expr]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *State) defineComputed(name string) {
	if _, ok := s.computed[name]; ok {
		return
	}
	fn := s.pending[name]
	s.defining[name] = true

	w := s.engine.NewWatcher(func() (any, error) {
		return fn(s)
	}, nil, true)

	delete(s.defining, name)
	delete(s.pending, name)
	s.computed[name] = w

	s.log.Debug().Str("name", name).Str("watcher", w.ID().String()).Msg("computed property defined")
}

// Engine returns the engine the state is built on.
func (s *State) Engine() *reactive.Engine {
	return s.engine
}

// Object returns the observed data object.
func (s *State) Object() *reactive.Object {
	return s.data
}

// Computed returns the watcher backing a computed property.
func (s *State) Computed(name string) (*reactive.Watcher, bool) {
	w, ok := s.computed[name]
	return w, ok
}

// Keys lists data properties in order followed by computed properties sorted
// by name.
func (s *State) Keys() []string {
	keys := s.data.Keys()
	return append(keys, sortedKeys(s.computed)...)
}

func (s *State) has(key string) bool {
	if _, ok := s.computed[key]; ok {
		return true
	}
	if _, ok := s.pending[key]; ok {
		return true
	}
	return s.data.Has(key)
}

// Get returns a data or computed property. Called from a watcher or a
// computed property, the read is tracked.
func (s *State) Get(key string) any {
	if s.defining[key] {
		if s.cycle == nil {
			s.cycle = xerrors.Errorf("%s: %w", key, ErrComputedCycle)
		}
		return nil
	}
	if _, ok := s.pending[key]; ok {
		s.defineComputed(key)
	}
	if w, ok := s.computed[key]; ok {
		return w.Value()
	}
	return s.data.Get(key)
}

// Path resolves a dotted path such as "user.name" or "list.length". On an
// array a segment is either "length" or an index.
func (s *State) Path(expr string) (any, error) {
	segs, err := splitPath(expr)
	if err != nil {
		return nil, err
	}
	if !s.has(segs[0]) {
		return nil, xerrors.Errorf("%s: %w", segs[0], ErrUnknownProperty)
	}

	cur := s.Get(segs[0])
	for i, seg := range segs[1:] {
		cur, err = descend(cur, seg)
		if err != nil {
			return nil, xerrors.Errorf("%s: %w", strings.Join(segs[:i+2], "."), err)
		}
	}
	return cur, nil
}

func descend(v any, seg string) (any, error) {
	switch t := v.(type) {
	case *reactive.Object:
		if !t.Has(seg) {
			return nil, ErrUnknownProperty
		}
		return t.Get(seg), nil
	case *reactive.Array:
		if seg == "length" {
			return t.Len(), nil
		}
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= t.Len() {
			return nil, ErrUnknownProperty
		}
		return t.At(i), nil
	}
	return nil, ErrUnknownProperty
}

// Watch runs cb whenever the value at expr is re-evaluated. Watching a computed
// property attaches cb to the computed property's own watcher.
func (s *State) Watch(expr string, cb reactive.Callback) error {
	if w, ok := s.computed[expr]; ok {
		w.AddCallback(cb)
		s.watchers = append(s.watchers, w)
		return nil
	}

	var err error
	s.engine.Untracked(func() {
		_, err = s.Path(expr)
	})
	if err != nil {
		// Both causes stay inspectable with errors.Is.
		return fmt.Errorf("%w: %w", err, ErrMissingWatchTarget)
	}

	w := s.engine.NewWatcher(func() (any, error) {
		return s.Path(expr)
	}, []reactive.Callback{cb}, false)
	s.watchers = append(s.watchers, w)

	s.log.Debug().Str("path", expr).Str("watcher", w.ID().String()).Msg("watching")
	return nil
}

// Watchers returns the watchers registered through Watch.
func (s *State) Watchers() []*reactive.Watcher {
	return append([]*reactive.Watcher(nil), s.watchers...)
}

// Set assigns a data property. Plain maps and slices are converted into
// reactive objects and arrays.
func (s *State) Set(key string, v any) error {
	if _, ok := s.computed[key]; ok {
		return xerrors.Errorf("%s: %w", key, ErrReadOnlyProperty)
	}
	if !s.data.Has(key) {
		return xerrors.Errorf("%s: %w", key, ErrUnknownProperty)
	}
	s.data.Set(key, normalize(v))
	return nil
}

// SetPath assigns the property or array element at expr. Replacing an array
// element goes through Splice so watchers of the array are notified.
func (s *State) SetPath(expr string, v any) error {
	segs, err := splitPath(expr)
	if err != nil {
		return err
	}
	if len(segs) == 1 {
		return s.Set(segs[0], v)
	}

	parent, err := s.untrackedPath(strings.Join(segs[:len(segs)-1], "."))
	if err != nil {
		return err
	}

	last := segs[len(segs)-1]
	switch t := parent.(type) {
	case *reactive.Object:
		if !t.Has(last) {
			return xerrors.Errorf("%s: %w", expr, ErrUnknownProperty)
		}
		t.Set(last, normalize(v))
		return nil
	case *reactive.Array:
		if last == "length" {
			return xerrors.Errorf("%s: %w", expr, ErrReadOnlyProperty)
		}
		i, err := strconv.Atoi(last)
		if err != nil || i < 0 || i >= t.Len() {
			return xerrors.Errorf("%s: %w", expr, ErrUnknownProperty)
		}
		t.Splice(i, 1, normalize(v))
		return nil
	}
	return xerrors.Errorf("%s: %w", expr, ErrUnknownProperty)
}

// Push appends items to the array at expr.
func (s *State) Push(expr string, items ...any) error {
	v, err := s.untrackedPath(expr)
	if err != nil {
		return err
	}
	arr, ok := v.(*reactive.Array)
	if !ok {
		return xerrors.Errorf("%s is not an array: %w", expr, ErrInvalidPath)
	}
	values := make([]any, len(items))
	for i, item := range items {
		values[i] = normalize(item)
	}
	arr.Push(values...)
	return nil
}

// Snapshot returns the data and computed values as plain Go values.
func (s *State) Snapshot() map[string]any {
	out := make(map[string]any)
	s.engine.Untracked(func() {
		for _, k := range s.Keys() {
			out[k] = reactive.ToValue(s.Get(k))
		}
	})
	return out
}

func (s *State) untrackedPath(expr string) (v any, err error) {
	s.engine.Untracked(func() {
		v, err = s.Path(expr)
	})
	return v, err
}

func splitPath(expr string) ([]string, error) {
	segs := strings.Split(expr, ".")
	for _, seg := range segs {
		if seg == "" {
			return nil, xerrors.Errorf("%q: %w", expr, ErrInvalidPath)
		}
	}
	return segs, nil
}

func normalize(v any) any {
	switch v.(type) {
	case *reactive.Object, *reactive.Array:
		return v
	}
	return reactive.FromValue(v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
