package reactive

// Descriptor describes one property of an Object. A property with Get or Set
// is an accessor property and ignores Value.
type Descriptor struct {
	Value        any
	Get          func() any
	Set          func(any)
	Configurable bool
	Enumerable   bool
}

// Object is an ordered set of named properties. Once observed, each property
// read and write goes through the reactive accessors installed by
// DefineReactive.
type Object struct {
	keys   []string
	props  map[string]*Descriptor
	frozen bool
	ob     *Observer
}

func NewObject() *Object {
	return &Object{props: make(map[string]*Descriptor)}
}

// Get returns the value of key, calling its getter if it has one. A missing
// key reads as nil.
func (o *Object) Get(key string) any {
	p, ok := o.props[key]
	if !ok {
		return nil
	}
	if p.Get != nil {
		return p.Get()
	}
	if p.Set != nil {
		return nil
	}
	return p.Value
}

// Set assigns key. A missing key becomes a plain data property. Writes to a
// frozen object or to a property with a getter and no setter are ignored.
func (o *Object) Set(key string, v any) {
	if o.frozen {
		return
	}
	p, ok := o.props[key]
	if !ok {
		o.keys = append(o.keys, key)
		o.props[key] = &Descriptor{Value: v, Configurable: true, Enumerable: true}
		return
	}
	switch {
	case p.Set != nil:
		p.Set(v)
	case p.Get != nil:
	default:
		p.Value = v
	}
}

// DefineProperty installs d under key, replacing any configurable property of
// the same name in place. It reports false when the object is frozen or the
// existing property is not configurable.
func (o *Object) DefineProperty(key string, d Descriptor) bool {
	if o.frozen {
		return false
	}
	p, ok := o.props[key]
	if ok && !p.Configurable {
		return false
	}
	if !ok {
		o.keys = append(o.keys, key)
	}
	o.props[key] = &d
	return true
}

// Descriptor returns a copy of the property descriptor for key.
func (o *Object) Descriptor(key string) (Descriptor, bool) {
	p, ok := o.props[key]
	if !ok {
		return Descriptor{}, false
	}
	return *p, true
}

func (o *Object) Has(key string) bool {
	_, ok := o.props[key]
	return ok
}

// Keys returns the enumerable keys in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, len(o.keys))
	for _, k := range o.keys {
		if o.props[k].Enumerable {
			keys = append(keys, k)
		}
	}
	return keys
}

func (o *Object) Len() int {
	return len(o.keys)
}

// Freeze makes the object non-extensible and every property non-configurable.
// A frozen object that is not yet observed can no longer be.
func (o *Object) Freeze() {
	o.frozen = true
	for _, p := range o.props {
		p.Configurable = false
	}
}

func (o *Object) IsFrozen() bool {
	return o.frozen
}
