package reactive

// Observer is attached to each observed Object or Array. It owns the
// dependency that stands for the container itself, notified when an Array is
// mutated, and turns the container's contents reactive.
type Observer struct {
	value  any
	dep    *Dependency
	engine *Engine
}

// Value returns the observed *Object or *Array.
func (ob *Observer) Value() any {
	return ob.value
}

// Dependency returns the container-level dependency.
func (ob *Observer) Dependency() *Dependency {
	return ob.dep
}

// Walk installs reactive accessors for every enumerable property of obj.
func (ob *Observer) Walk(obj *Object) {
	for _, key := range obj.Keys() {
		ob.engine.DefineReactive(obj, key)
	}
}

// ObserveArray observes each of items.
func (ob *Observer) ObserveArray(items []any) {
	for _, item := range items {
		ob.engine.Observe(item)
	}
}

// Observe makes v reactive and returns its Observer. A value that already
// has one gets it back unchanged. Only unfrozen Objects and Arrays can be
// observed; anything else returns nil and is left untouched.
func (e *Engine) Observe(v any) *Observer {
	switch t := v.(type) {
	case *Object:
		if t == nil {
			return nil
		}
		if t.ob != nil {
			return t.ob
		}
		if t.frozen {
			return nil
		}
		ob := e.newObserver(t)
		t.ob = ob
		ob.Walk(t)
		return ob
	case *Array:
		if t == nil {
			return nil
		}
		if t.ob != nil {
			return t.ob
		}
		if t.frozen {
			return nil
		}
		ob := e.newObserver(t)
		t.ob = ob
		ob.ObserveArray(t.items)
		return ob
	}
	return nil
}

func (e *Engine) newObserver(v any) *Observer {
	e.metrics.observed()
	return &Observer{
		value:  v,
		dep:    e.NewDependency(),
		engine: e,
	}
}

// ObserverOf returns the Observer attached to v, or nil.
func ObserverOf(v any) *Observer {
	switch t := v.(type) {
	case *Object:
		if t != nil {
			return t.ob
		}
	case *Array:
		if t != nil {
			return t.ob
		}
	}
	return nil
}

// DefineReactive replaces the property key of obj with an accessor pair that
// records reads against the current watcher and notifies on writes. When
// value is omitted the current value of the property is used. Existing
// getters and setters are kept and called through; a non-configurable
// property is left as is.
func (e *Engine) DefineReactive(obj *Object, key string, value ...any) {
	if obj.frozen {
		return
	}
	prop, exists := obj.props[key]
	if exists && !prop.Configurable {
		return
	}

	dep := e.NewDependency()

	var getter func() any
	var setter func(any)
	if exists {
		getter, setter = prop.Get, prop.Set
	}

	var val any
	if len(value) > 0 {
		val = value[0]
	} else if getter == nil || setter != nil {
		val = obj.Get(key)
	}

	childOb := e.Observe(val)
	obj.DefineProperty(key, Descriptor{
		Get: func() any {
			v := val
			if getter != nil {
				v = getter()
			}
			if e.target != nil {
				dep.Depend()
				if childOb != nil {
					childOb.dep.Depend()
					if arr, ok := v.(*Array); ok {
						dependArray(arr)
					}
				}
			}
			return v
		},
		Set: func(nv any) {
			v := val
			if getter != nil {
				v = getter()
			}
			if SameValue(nv, v) {
				return
			}
			if getter != nil && setter == nil {
				return
			}
			if setter != nil {
				setter(nv)
			} else {
				val = nv
			}
			childOb = e.Observe(nv)
			dep.Notify()
		},
		Configurable: true,
		Enumerable:   true,
	})
}

// dependArray records a dependency on every observed element of arr, nested
// arrays included, since element access cannot be intercepted per index.
func dependArray(arr *Array) {
	for _, item := range arr.items {
		if ob := ObserverOf(item); ob != nil {
			ob.dep.Depend()
		}
		if nested, ok := item.(*Array); ok {
			dependArray(nested)
		}
	}
}

func dependValue(v any) {
	if ob := ObserverOf(v); ob != nil {
		ob.dep.Depend()
	}
	if arr, ok := v.(*Array); ok {
		dependArray(arr)
	}
}
