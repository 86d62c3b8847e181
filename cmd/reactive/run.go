package main

import (
	"fmt"
	"io"

	"github.com/edgarvarela24/reactive-go/pkg/reactive"
	"github.com/edgarvarela24/reactive-go/pkg/state"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

// stateFlags are shared by the commands that build a State.
type stateFlags struct {
	data     string
	computed []string
	watches  []string
}

func (f *stateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.data, "data", "d", "", "YAML or JSON state document")
	cmd.Flags().StringArrayVarP(&f.computed, "computed", "c", nil, "computed property NAME=FUNC:PATH,... (sum, product, len, concat)")
	cmd.Flags().StringArrayVarP(&f.watches, "watch", "w", nil, "path or computed property to report changes of")
	_ = cmd.MarkFlagRequired("data")
}

// build loads the document and wires computed properties and watches. Every
// watched change is written to out.
func (f *stateFlags) build(out io.Writer, opts ...reactive.Option) (*state.State, error) {
	data, err := state.LoadDataFile(f.data)
	if err != nil {
		return nil, err
	}

	computed := make(map[string]state.ComputedFunc, len(f.computed))
	for _, def := range f.computed {
		name, fn, err := parseComputed(def)
		if err != nil {
			return nil, err
		}
		computed[name] = fn
	}

	watch := make(map[string]reactive.Callback, len(f.watches))
	for _, expr := range f.watches {
		watch[expr] = printChange(out, expr)
	}

	s, err := state.New(state.Options{
		Data:     data,
		Computed: computed,
		Watch:    watch,
	}, state.WithEngine(reactive.Start(opts...)))
	if err != nil {
		return nil, xerrors.Errorf("failed to build state: %w", err)
	}
	return s, nil
}

// printChange reports a watched value. Scalars that re-evaluated to the same
// value are not printed; objects and arrays may have changed in place and
// always are.
func printChange(out io.Writer, expr string) reactive.Callback {
	return func(n, o any) error {
		if unchanged(n, o) {
			return nil
		}
		_, err := fmt.Fprintf(out, "%s: %v -> %v\n", expr, reactive.ToValue(o), reactive.ToValue(n))
		return err
	}
}

func runCmd(logger func() zerolog.Logger) *cobra.Command {
	var flags stateFlags
	var ops []string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Apply operations to a state document and report changes",
		Example: `  reactive run -d state.yaml -w a -c total=sum:a,b --op "set a=5"
  reactive run -d state.yaml -w list.length --op "push list=3" --op "pop list"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger()

			parsed := make([]operation, len(ops))
			for i, text := range ops {
				op, err := parseOperation(text)
				if err != nil {
					return err
				}
				parsed[i] = op
			}

			out := cmd.OutOrStdout()
			s, err := flags.build(out, reactive.WithLogger(log))
			if err != nil {
				return err
			}

			for _, op := range parsed {
				log.Debug().Stringer("op", op).Msg("applying")
				if err := op.apply(s); err != nil {
					return xerrors.Errorf("%v: %w", op, err)
				}
			}

			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(s.Snapshot()); err != nil {
				return xerrors.Errorf("failed to encode state: %v", err)
			}
			return enc.Close()
		},
	}

	flags.register(cmd)
	cmd.Flags().StringArrayVar(&ops, "op", nil, `operation to apply, in order: "set PATH=VALUE", "push PATH=VALUE", "unshift PATH=VALUE", "pop PATH", "shift PATH", "sort PATH", "reverse PATH"`)
	return cmd
}

func unchanged(n, o any) bool {
	switch n.(type) {
	case *reactive.Object, *reactive.Array:
		return false
	}
	return reactive.SameValue(n, o)
}
