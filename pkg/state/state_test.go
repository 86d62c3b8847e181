package state

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/edgarvarela24/reactive-go/pkg/reactive"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type change struct {
	New, Old any
}

func recorder(out *[]change) reactive.Callback {
	return func(n, o any) error {
		*out = append(*out, change{n, o})
		return nil
	}
}

func TestState_WatchDataProperty(t *testing.T) {
	var changes []change
	s, err := New(Options{
		Data:  map[string]any{"a": 1},
		Watch: map[string]reactive.Callback{"a": recorder(&changes)},
	})
	require.NoError(t, err)

	require.NoError(t, s.Set("a", 2))
	require.Equal(t, []change{{2, 1}}, changes)

	require.NoError(t, s.Set("a", 2))
	require.Len(t, changes, 1)
}

func TestState_WatchArrayLength(t *testing.T) {
	s, err := New(Options{Data: map[string]any{"list": []any{1, 2}}})
	require.NoError(t, err)

	var changes []change
	require.NoError(t, s.Watch("list.length", recorder(&changes)))

	require.NoError(t, s.Push("list", 3))
	require.Equal(t, []change{{3, 2}}, changes)

	v, err := s.Path("list.2")
	require.NoError(t, err)
	require.Equal(t, 3, v)
}

func TestState_Computed(t *testing.T) {
	s, err := New(Options{
		Data: map[string]any{"a": 3},
		Computed: map[string]ComputedFunc{
			"double": func(s *State) (any, error) {
				return s.Get("a").(int) * 2, nil
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 6, s.Get("double"))

	require.NoError(t, s.Set("a", 5))
	require.Equal(t, 10, s.Get("double"))
}

func TestState_ComputedDependsOnComputed(t *testing.T) {
	s, err := New(Options{
		Data: map[string]any{"a": 1},
		Computed: map[string]ComputedFunc{
			// Sorted first, so it defines "b" on demand.
			"a2": func(s *State) (any, error) {
				return s.Get("b").(int) + 1, nil
			},
			"b": func(s *State) (any, error) {
				return s.Get("a").(int) * 10, nil
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 11, s.Get("a2"))

	require.NoError(t, s.Set("a", 2))
	require.Equal(t, 20, s.Get("b"))
	require.Equal(t, 21, s.Get("a2"))
}

func TestState_ComputedCycle(t *testing.T) {
	_, err := New(Options{
		Computed: map[string]ComputedFunc{
			"x": func(s *State) (any, error) { return s.Get("y"), nil },
			"y": func(s *State) (any, error) { return s.Get("x"), nil },
		},
	})
	require.ErrorIs(t, err, ErrComputedCycle)
}

func TestState_ComputedConflict(t *testing.T) {
	_, err := New(Options{
		Data: map[string]any{"a": 1},
		Computed: map[string]ComputedFunc{
			"a": func(s *State) (any, error) { return 2, nil },
		},
	})
	require.ErrorIs(t, err, ErrComputedConflict)
	require.Regexp(t, "^a: ", err.Error())
}

func TestState_WatchMissingProperty(t *testing.T) {
	_, err := New(Options{
		Data: map[string]any{"a": 1},
		Watch: map[string]reactive.Callback{
			"missing": func(_, _ any) error { return nil },
		},
	})
	require.ErrorIs(t, err, ErrMissingWatchTarget)

	s, err := New(Options{Data: map[string]any{"user": map[string]any{"name": "ada"}}})
	require.NoError(t, err)

	cb := func(_, _ any) error { return nil }
	require.ErrorIs(t, s.Watch("user.email", cb), ErrMissingWatchTarget)
	require.ErrorIs(t, s.Watch("user.name.first", cb), ErrMissingWatchTarget)
	require.ErrorIs(t, s.Watch("user..name", cb), ErrMissingWatchTarget)
	require.Empty(t, s.Watchers())
}

func TestState_WatchErrorKeepsCause(t *testing.T) {
	s, err := New(Options{Data: map[string]any{"list": []any{1}}})
	require.NoError(t, err)

	err = s.Watch("list.size", func(_, _ any) error { return nil })
	require.ErrorIs(t, err, ErrMissingWatchTarget)
	require.ErrorIs(t, err, ErrUnknownProperty)
	require.Equal(t, 1, strings.Count(err.Error(), "list.size"))
}

func TestState_TypedData(t *testing.T) {
	var lengths, labels []change
	s, err := New(Options{
		Data: map[string]any{
			"list":   []int{1, 2},
			"labels": map[string]string{"env": "dev"},
		},
		Watch: map[string]reactive.Callback{
			"list.length": recorder(&lengths),
			"labels.env":  recorder(&labels),
		},
	})
	require.NoError(t, err)

	require.NoError(t, s.Push("list", 3))
	require.NoError(t, s.SetPath("labels.env", "prod"))
	require.NoError(t, s.Set("list", []string{"a"}))

	require.Equal(t, []change{{3, 2}, {1, 3}}, lengths)
	require.Equal(t, []change{{"prod", "dev"}}, labels)
	require.Equal(t, map[string]any{
		"list":   []any{"a"},
		"labels": map[string]any{"env": "prod"},
	}, s.Snapshot())
}

func TestState_PushDoesNotModifyArguments(t *testing.T) {
	s, err := New(Options{Data: map[string]any{"list": []any{}}})
	require.NoError(t, err)

	items := []any{map[string]any{"v": 1}, []any{2}}
	require.NoError(t, s.Push("list", items...))

	require.IsType(t, map[string]any{}, items[0])
	require.IsType(t, []any{}, items[1])
	require.Equal(t, []any{map[string]any{"v": 1}, []any{2}}, s.Snapshot()["list"])
}

func TestState_WatchComputedReusesWatcher(t *testing.T) {
	s, err := New(Options{
		Data: map[string]any{"a": 1},
		Computed: map[string]ComputedFunc{
			"double": func(s *State) (any, error) { return s.Get("a").(int) * 2, nil },
		},
	})
	require.NoError(t, err)

	var changes []change
	require.NoError(t, s.Watch("double", recorder(&changes)))

	w, ok := s.Computed("double")
	require.True(t, ok)
	require.Equal(t, []*reactive.Watcher{w}, s.Watchers())

	require.NoError(t, s.Set("a", 4))
	require.Equal(t, []change{{8, 2}}, changes)
}

func TestState_WatchNestedPath(t *testing.T) {
	s, err := New(Options{Data: map[string]any{
		"user": map[string]any{"name": "ada"},
		"rows": []any{map[string]any{"v": 1}},
	}})
	require.NoError(t, err)

	var names, rows []change
	require.NoError(t, s.Watch("user.name", recorder(&names)))
	require.NoError(t, s.Watch("rows.0.v", recorder(&rows)))

	require.NoError(t, s.SetPath("user.name", "grace"))
	require.NoError(t, s.Set("user", map[string]any{"name": "linus"}))
	require.Equal(t, []change{{"grace", "ada"}, {"linus", "grace"}}, names)

	require.NoError(t, s.SetPath("rows.0.v", 2))
	require.NoError(t, s.SetPath("rows.0", map[string]any{"v": 3}))
	require.Equal(t, []change{{2, 1}, {3, 2}}, rows)
}

func TestState_SetErrors(t *testing.T) {
	s, err := New(Options{
		Data: map[string]any{"a": 1, "list": []any{1}},
		Computed: map[string]ComputedFunc{
			"c": func(s *State) (any, error) { return 1, nil },
		},
	})
	require.NoError(t, err)

	require.ErrorIs(t, s.Set("c", 2), ErrReadOnlyProperty)
	require.ErrorIs(t, s.Set("nope", 2), ErrUnknownProperty)
	require.ErrorIs(t, s.SetPath("list.length", 2), ErrReadOnlyProperty)
	require.ErrorIs(t, s.SetPath("list.4", 2), ErrUnknownProperty)
	require.ErrorIs(t, s.SetPath("a.b", 2), ErrUnknownProperty)
	require.ErrorIs(t, s.SetPath("", 2), ErrInvalidPath)
	require.ErrorIs(t, s.Push("a", 2), ErrInvalidPath)
	require.ErrorIs(t, s.Push("zzz", 2), ErrUnknownProperty)
}

func TestState_DataIsCopied(t *testing.T) {
	raw := map[string]any{"list": []any{1}}
	s, err := New(Options{Data: raw})
	require.NoError(t, err)

	raw["list"].([]any)[0] = 5
	v, err := s.Path("list.0")
	require.NoError(t, err)
	require.Equal(t, 1, v)
}

func TestState_SnapshotAndKeys(t *testing.T) {
	s, err := New(Options{
		Data: map[string]any{"b": 1, "a": []any{"x"}},
		Computed: map[string]ComputedFunc{
			"n": func(s *State) (any, error) { return s.Get("b").(int) + 1, nil },
		},
	})
	require.NoError(t, err)

	require.Equal(t, []string{"a", "b", "n"}, s.Keys())
	require.Equal(t, map[string]any{"a": []any{"x"}, "b": 1, "n": 2}, s.Snapshot())
	require.NotNil(t, s.Object())
	require.NotNil(t, s.Engine())
}

func TestState_FailingWatchIsLogged(t *testing.T) {
	out := &bytes.Buffer{}
	eng := reactive.Start(reactive.WithLogger(zerolog.New(out)))

	s, err := New(Options{
		Data: map[string]any{"list": []any{1, 2}},
	}, WithEngine(eng))
	require.NoError(t, err)
	require.Same(t, eng, s.Engine())

	var changes []change
	require.NoError(t, s.Watch("list.1", recorder(&changes)))

	list, err := s.Path("list")
	require.NoError(t, err)
	list.(*reactive.Array).Pop()

	require.Empty(t, changes)
	require.Equal(t, 2, s.Watchers()[0].Value())
	require.Regexp(t, "evaluation of watcher failed", out.String())
}

func TestState_CallbackErrorDoesNotStopOthers(t *testing.T) {
	var changes []change
	s, err := New(Options{
		Data: map[string]any{"a": 1},
		Watch: map[string]reactive.Callback{
			"a": func(_, _ any) error { return errors.New("nope") },
		},
	})
	require.NoError(t, err)
	require.NoError(t, s.Watch("a", recorder(&changes)))

	require.NoError(t, s.Set("a", 2))
	require.Equal(t, []change{{2, 1}}, changes)
}
