package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/airsdlc/airtrack/artifact"
	"github.com/airsdlc/airtrack/metrics"
	"github.com/airsdlc/airtrack/validation"
	"github.com/airsdlc/airtrack/watch"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Watch the artifact tree and expose metrics",
		Long: `Run airtrack as a long-lived process: watch the tree for document
changes, revalidate what changed, and expose Prometheus metrics on
the configured address until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			if !a.manager.Initialized() {
				return fmt.Errorf("no artifact tree at %s (run: airtrack init)", a.manager.RootPath())
			}
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := metrics.New()
	validator := validation.NewValidator()
	pub, closeEvents := a.connectEvents()
	defer closeEvents()

	lastStatus := make(map[artifact.ID]artifact.Status)
	refresh := func() {
		artifacts, err := a.manager.List(ctx)
		if err != nil {
			a.logger.Error("Failed to list artifacts", "error", err)
			return
		}
		m.SetPopulation(artifacts)

		// Status changes observed between snapshots count as transitions,
		// whether they came through the CLI or from a hand edit.
		for _, d := range diffStatuses(lastStatus, artifacts) {
			m.ObserveTransition(d.art.Type, d.art.Status)
			if err := pub.Transitioned(d.art, d.change()); err != nil {
				a.logger.Warn("Failed to publish transition event",
					"id", d.art.ID, "error", err)
			}
		}

		malformed, err := a.manager.Malformed(ctx)
		if err != nil {
			a.logger.Error("Failed to scan for malformed documents", "error", err)
		}
		for _, doc := range malformed {
			a.logger.Warn("Document cannot be parsed", "path", doc.Path, "error", doc.Err)
		}
	}
	refresh()

	// Metrics endpoint
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	srv := &http.Server{
		Addr:              a.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("Metrics listening", "addr", a.cfg.Metrics.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	// Tree watcher
	watcher, err := watch.NewWatcher(a.manager, watch.Config{
		DebounceDelay: a.cfg.Watch.Debounce,
		Logger:        a.logger,
	})
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	a.logger.Info("Airtrack serving",
		"version", Version,
		"root", a.manager.RootPath())

	done := false
	for !done {
		select {
		case <-ctx.Done():
			done = true

		case err := <-serveErr:
			cancel()
			_ = watcher.Stop()
			return fmt.Errorf("metrics server: %w", err)

		case ev, ok := <-watcher.Events():
			if !ok {
				done = true
				break
			}
			m.ObserveWatchEvent(string(ev.Operation))
			a.logger.Info("Tree changed", "path", ev.Path, "op", ev.Operation)

			if ev.Operation != watch.OpDelete {
				a.validateChanged(ctx, validator, m, ev.Path)
			}
			refresh()
		}
	}

	a.logger.Info("Shutting down")
	_ = watcher.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Metrics server shutdown", "error", err)
	}

	a.logger.Info("Airtrack shutdown complete")
	return nil
}

// statusDiff is a status change observed between two tree snapshots.
type statusDiff struct {
	art  *artifact.Artifact
	from artifact.Status
}

// change reconstructs the transition. The document's own history is
// authoritative when its latest entry matches what we observed.
func (d statusDiff) change() artifact.StatusChange {
	if n := len(d.art.StatusHistory); n > 0 {
		if last := d.art.StatusHistory[n-1]; last.To == d.art.Status {
			return last
		}
	}
	return artifact.StatusChange{From: d.from, To: d.art.Status, At: time.Now()}
}

// diffStatuses compares a snapshot against the recorded statuses,
// updates the record in place, and returns the observed changes.
// Artifacts seen for the first time are recorded but not reported.
func diffStatuses(last map[artifact.ID]artifact.Status, artifacts []*artifact.Artifact) []statusDiff {
	var diffs []statusDiff
	for _, art := range artifacts {
		if prev, ok := last[art.ID]; ok && prev != art.Status {
			diffs = append(diffs, statusDiff{art: art, from: prev})
		}
		last[art.ID] = art.Status
	}
	return diffs
}

// validateChanged revalidates the document behind a changed path.
func (a *app) validateChanged(ctx context.Context, validator *validation.Validator, m *metrics.Metrics, relPath string) {
	id, ok := a.idForPath(relPath)
	if !ok {
		return
	}

	art, err := a.manager.Load(ctx, id)
	if err != nil {
		m.ObserveValidationFailure()
		a.logger.Warn("Changed document does not parse", "path", relPath, "error", err)
		return
	}

	if result := validator.ValidateDocument(art); !result.Valid {
		m.ObserveValidationFailure()
		a.logger.Warn("Changed document failed validation",
			"id", art.ID,
			"missing_sections", strings.Join(result.MissingSections, ", "))
	}
}

// idForPath maps a tree-relative document path back to an artifact ID.
func (a *app) idForPath(relPath string) (artifact.ID, bool) {
	dir := filepath.Dir(relPath)
	base := filepath.Base(relPath)
	slug := strings.TrimSuffix(base, filepath.Ext(base))

	for _, t := range artifact.AllTypes {
		if filepath.Base(a.manager.TypePath(t)) == dir {
			return artifact.NewID(t, slug), true
		}
	}
	return "", false
}
