package main

import (
	"fmt"
	"strings"

	"github.com/edgarvarela24/reactive-go/pkg/reactive"
	"github.com/edgarvarela24/reactive-go/pkg/state"
	"golang.org/x/xerrors"
)

// operation is one mutation given on the command line, e.g. "set a=5",
// "push list=4" or "reverse list".
type operation struct {
	kind  string
	path  string
	value any
}

func (op operation) String() string {
	if op.value == nil {
		return op.kind + " " + op.path
	}
	return fmt.Sprintf("%s %s=%v", op.kind, op.path, op.value)
}

func parseOperation(text string) (operation, error) {
	kind, rest, ok := strings.Cut(strings.TrimSpace(text), " ")
	rest = strings.TrimSpace(rest)
	if !ok || rest == "" {
		return operation{}, xerrors.Errorf("malformed operation %q", text)
	}

	switch kind {
	case "set", "push", "unshift":
		path, raw, ok := strings.Cut(rest, "=")
		if !ok || path == "" {
			return operation{}, xerrors.Errorf("operation %q needs PATH=VALUE", text)
		}
		v, err := state.ParseValue(raw)
		if err != nil {
			return operation{}, err
		}
		return operation{kind: kind, path: path, value: v}, nil
	case "pop", "shift", "reverse", "sort":
		return operation{kind: kind, path: rest}, nil
	}
	return operation{}, xerrors.Errorf("unknown operation %q", kind)
}

func (op operation) apply(s *state.State) error {
	switch op.kind {
	case "set":
		return s.SetPath(op.path, op.value)
	case "push":
		return s.Push(op.path, op.value)
	}

	v, err := s.Path(op.path)
	if err != nil {
		return err
	}
	arr, ok := v.(*reactive.Array)
	if !ok {
		return xerrors.Errorf("%s: not an array", op.path)
	}

	switch op.kind {
	case "unshift":
		arr.Unshift(reactive.FromValue(op.value))
	case "pop":
		arr.Pop()
	case "shift":
		arr.Shift()
	case "reverse":
		arr.Reverse()
	case "sort":
		arr.Sort(nil)
	}
	return nil
}

// parseComputed reads a definition such as "total=sum:a,b". The available
// functions are sum, product, len and concat.
func parseComputed(text string) (string, state.ComputedFunc, error) {
	name, def, ok := strings.Cut(text, "=")
	if !ok || name == "" {
		return "", nil, xerrors.Errorf("computed %q needs NAME=FUNC:PATH,...", text)
	}
	fn, args, ok := strings.Cut(def, ":")
	if !ok || args == "" {
		return "", nil, xerrors.Errorf("computed %q needs at least one path", text)
	}
	paths := strings.Split(args, ",")

	values := func(s *state.State) ([]any, error) {
		out := make([]any, len(paths))
		for i, p := range paths {
			v, err := s.Path(p)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	switch fn {
	case "sum", "product":
		return name, func(s *state.State) (any, error) {
			vs, err := values(s)
			if err != nil {
				return nil, err
			}
			return fold(fn, vs)
		}, nil
	case "len":
		if len(paths) != 1 {
			return "", nil, xerrors.Errorf("computed %q: len takes one path", text)
		}
		return name, func(s *state.State) (any, error) {
			v, err := s.Path(paths[0])
			if err != nil {
				return nil, err
			}
			switch t := v.(type) {
			case *reactive.Array:
				return t.Len(), nil
			case *reactive.Object:
				return t.Len(), nil
			case string:
				return len(t), nil
			}
			return nil, xerrors.Errorf("%s has no length", paths[0])
		}, nil
	case "concat":
		return name, func(s *state.State) (any, error) {
			vs, err := values(s)
			if err != nil {
				return nil, err
			}
			var b strings.Builder
			for _, v := range vs {
				fmt.Fprint(&b, v)
			}
			return b.String(), nil
		}, nil
	}
	return "", nil, xerrors.Errorf("unknown computed function %q", fn)
}

// fold sums or multiplies numbers, staying in int while every operand is an
// int.
func fold(fn string, vs []any) (any, error) {
	isum, iprod := 0, 1
	fsum, fprod := 0.0, 1.0
	ints := true

	for _, v := range vs {
		switch n := v.(type) {
		case int:
			isum, iprod = isum+n, iprod*n
			fsum, fprod = fsum+float64(n), fprod*float64(n)
		case float64:
			ints = false
			fsum, fprod = fsum+n, fprod*n
		default:
			return nil, xerrors.Errorf("%v (%T) is not a number", v, v)
		}
	}

	switch {
	case ints && fn == "sum":
		return isum, nil
	case ints:
		return iprod, nil
	case fn == "sum":
		return fsum, nil
	}
	return fprod, nil
}
