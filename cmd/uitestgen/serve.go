package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/uitestgen/internal/server"
	"github.com/randalmurphal/uitestgen/pkg/flowgraph/observability"
	"github.com/randalmurphal/uitestgen/pkg/workflow"
)

// serveSettings is the "server" section of the settings file.
type serveSettings struct {
	Addr              string        `mapstructure:"addr"`
	MaxConcurrentRuns int           `mapstructure:"max_concurrent_runs"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

func newServeCmd(a *app) *cobra.Command {
	var addr string
	var maxRuns int
	var origins []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP trigger for workflow runs",
		Long: `Serves the login-test graph (the default) and the spec graph.

  POST /runs, POST /graphs/{name}/runs   a JSON seed state in, the final state and trace out
  GET  /graph, GET /graphs/{name}        Mermaid diagram
  GET  /graphs                           graph names
  GET  /metrics, GET /healthz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ss := serveSettings{Addr: ":8080", MaxConcurrentRuns: 2, ShutdownTimeout: 10 * time.Second}
			if err := a.cfg.Section("server", &ss); err != nil {
				return err
			}
			fl := cmd.Flags()
			if fl.Changed("addr") {
				ss.Addr = addr
			}
			if fl.Changed("max-runs") {
				ss.MaxConcurrentRuns = maxRuns
			}
			if fl.Changed("cors-origin") {
				ss.AllowedOrigins = origins
			}
			return a.serve(cmd.Context(), ss)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&addr, "addr", ":8080", "listen address")
	fl.IntVar(&maxRuns, "max-runs", 2, "runs executing at once; more are rejected with 429")
	fl.StringSliceVar(&origins, "cors-origin", nil, "origins allowed to call the API from a browser")
	return cmd
}

func (a *app) serve(ctx context.Context, ss serveSettings) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewPrometheusRecorder(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	deps, closeDeps, err := a.deps(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeDeps(); err != nil {
			a.logger.Warn("close token store", "error", err.Error())
		}
	}()

	loginGraph, err := workflow.NewLoginTestGraph(deps)
	if err != nil {
		return err
	}
	specGraph, err := workflow.NewSpecGraph(deps)
	if err != nil {
		return err
	}
	opts := []workflow.RunnerOption{
		workflow.WithRunnerLogger(a.logger),
		workflow.WithMetricsRecorder(metrics),
	}

	handler, err := server.New(server.Config{
		MaxConcurrentRuns: ss.MaxConcurrentRuns,
		AllowedOrigins:    ss.AllowedOrigins,
		Gatherer:          reg,
		Logger:            a.logger,
	},
		workflow.NewLoginTestRunner(loginGraph, a.settings, opts...),
		workflow.NewSpecRunner(specGraph, a.settings, opts...))
	if err != nil {
		return err
	}
	defer handler.Close()

	srv := &http.Server{
		Addr:              ss.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", ss.Addr, "max_concurrent_runs", ss.MaxConcurrentRuns)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down", "timeout", ss.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ss.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("graceful shutdown did not complete", "error", err.Error())
		return srv.Close()
	}
	return nil
}
