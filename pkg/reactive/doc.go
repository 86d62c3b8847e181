// Package reactive tracks which values a computation reads and re-runs the
// computation when any of them change.
//
// Data lives in Objects and Arrays. Observing one installs reactive accessors
// on every property, recursively:
//
//	eng := reactive.Start()
//	data := reactive.FromValue(map[string]any{"a": 1}).(*reactive.Object)
//	eng.Observe(data)
//
//	eng.NewWatcher(func() (any, error) {
//		return data.Get("a"), nil
//	}, []reactive.Callback{func(n, o any) error {
//		fmt.Println(o, "->", n)
//		return nil
//	}}, false)
//
//	data.Set("a", 2) // prints 1 -> 2
//
// Updates are synchronous: Set returns after every affected watcher has
// re-evaluated and its callbacks have run.
package reactive
