package reactive

import (
	"fmt"
	"reflect"
	"sort"
)

// FromValue deep-copies a tree of maps and slices into Objects and Arrays.
// Typed Go containers ([]int, map[string]string, fixed-size arrays) convert
// the same way as the []any and map[string]any trees produced by YAML or
// JSON decoding. Map keys are sorted so the resulting property order is
// deterministic. Existing Objects and Arrays are copied too; every other
// value is returned unchanged.
func FromValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			obj.Set(k, FromValue(t[k]))
		}
		return obj
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = val
		}
		return FromValue(m)
	case []any:
		arr := &Array{items: make([]any, len(t))}
		for i, item := range t {
			arr.items[i] = FromValue(item)
		}
		return arr
	case *Object:
		obj := NewObject()
		for _, k := range t.Keys() {
			obj.Set(k, FromValue(t.Get(k)))
		}
		return obj
	case *Array:
		arr := &Array{items: make([]any, len(t.items))}
		for i, item := range t.items {
			arr.items[i] = FromValue(item)
		}
		return arr
	}
	return fromReflect(v)
}

func fromReflect(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		arr := &Array{items: make([]any, rv.Len())}
		for i := range arr.items {
			arr.items[i] = FromValue(rv.Index(i).Interface())
		}
		return arr
	case reflect.Map:
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key()
			if k.Kind() == reflect.String {
				m[k.String()] = iter.Value().Interface()
			} else {
				m[fmt.Sprint(k.Interface())] = iter.Value().Interface()
			}
		}
		return FromValue(m)
	}
	return v
}

// ToValue converts Objects and Arrays back into plain maps and slices.
func ToValue(v any) any {
	switch t := v.(type) {
	case *Object:
		m := make(map[string]any, t.Len())
		for _, k := range t.Keys() {
			m[k] = ToValue(t.Get(k))
		}
		return m
	case *Array:
		out := make([]any, len(t.items))
		for i, item := range t.items {
			out[i] = ToValue(item)
		}
		return out
	}
	return v
}
