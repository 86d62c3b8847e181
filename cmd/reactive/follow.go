package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/edgarvarela24/reactive-go/pkg/reactive"
	"github.com/edgarvarela24/reactive-go/pkg/state"
	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
)

func followCmd(logger func() zerolog.Logger) *cobra.Command {
	var flags stateFlags
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "follow",
		Short: "Reload a state document on every write and report changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			metrics, err := reactive.NewMetrics(reg)
			if err != nil {
				return xerrors.Errorf("failed to register metrics: %v", err)
			}

			s, err := flags.build(cmd.OutOrStdout(), reactive.WithLogger(log), reactive.WithMetrics(metrics))
			if err != nil {
				return err
			}

			if metricsAddr != "" {
				srv := serveMetrics(metricsAddr, reg, log)
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			f := &follower{path: flags.data, state: s, log: log}
			return f.run(ctx)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

func serveMetrics(addr string, reg *prometheus.Registry, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
	return srv
}

// follower applies reloads of one state document. The state is only touched
// from the goroutine running run.
type follower struct {
	path  string
	state *state.State
	log   zerolog.Logger
}

func (f *follower) run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return xerrors.Errorf("failed to create file watcher: %v", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file instead of
	// writing it in place.
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		return xerrors.Errorf("failed to watch %s: %v", f.path, err)
	}
	f.log.Info().Str("path", f.path).Msg("following state document")

	target := filepath.Clean(f.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := f.reload(); err != nil {
				f.log.Warn().Err(err).Msg("reload failed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.log.Error().Err(err).Msg("file watcher error")
		}
	}
}

// reload reads the document again and assigns every top-level data property
// it contains. Unchanged scalars do not notify.
func (f *follower) reload() error {
	data, err := state.LoadDataFile(f.path)
	if err != nil {
		return err
	}

	applied := 0
	for _, key := range f.state.Object().Keys() {
		v, ok := data[key]
		if !ok {
			continue
		}
		if err := f.state.Set(key, v); err != nil {
			return err
		}
		applied++
	}
	for key := range data {
		if !f.state.Object().Has(key) {
			f.log.Warn().Str("key", key).Msg("ignoring property not present at startup")
		}
	}

	f.log.Debug().Int("properties", applied).Msg("reloaded")
	return nil
}
