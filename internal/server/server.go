// Package server exposes workflow runs over HTTP.
//
//	POST /runs                 run the default graph
//	POST /graphs/{name}/runs   run a named graph
//	GET  /graph                Mermaid diagram of the default graph
//	GET  /graphs               registered graph names
//	GET  /graphs/{name}        Mermaid diagram of a named graph
//	GET  /metrics              Prometheus metrics
//	GET  /healthz              liveness
//
// A run request body is a JSON seed state; the response carries the final
// state and the step trace. Add ?report=markdown to include the run report.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/randalmurphal/uitestgen/pkg/flowgraph"
	"github.com/randalmurphal/uitestgen/pkg/flowgraph/trace"
	"github.com/randalmurphal/uitestgen/pkg/report"
	"github.com/randalmurphal/uitestgen/pkg/workflow"
)

// Runner executes runs of one graph. *workflow.Runner implements it.
type Runner interface {
	Name() string
	Validate(seed workflow.State) error
	Execute(ctx context.Context, seed workflow.State) (*workflow.Result, error)
	Report(res *workflow.Result) report.Data
	Graph() *flowgraph.CompiledGraph[workflow.State, workflow.Update]
}

// Config configures a Server.
type Config struct {
	// MaxConcurrentRuns bounds the runs executing at once across all
	// graphs. Requests beyond it are rejected with 429. Default: 2.
	MaxConcurrentRuns int

	// AllowedOrigins enables CORS for the listed origins.
	AllowedOrigins []string

	// Gatherer serves /metrics. Nil uses prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	Logger *slog.Logger
}

// Server is the HTTP trigger for workflow runs.
type Server struct {
	runners *runners
	pool    *ants.Pool
	cfg     Config
	logger  *slog.Logger
	router  chi.Router
}

// New creates a server for the given runners; the first is the default
// graph. Call Close to release the worker pool.
func New(cfg Config, rs ...Runner) (*Server, error) {
	if len(rs) == 0 {
		return nil, errors.New("server: no runners")
	}
	reg := newRunners()
	for _, r := range rs {
		if r == nil {
			return nil, errors.New("server: nil runner")
		}
		if err := reg.register(r); err != nil {
			return nil, err
		}
	}

	if cfg.MaxConcurrentRuns <= 0 {
		cfg.MaxConcurrentRuns = 2
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	pool, err := ants.NewPool(cfg.MaxConcurrentRuns, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}

	s := &Server{
		runners: reg,
		pool:    pool,
		cfg:     cfg,
		logger:  cfg.Logger,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
		}).Handler)
	}

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))

	r.Post("/runs", s.withRunner(s.createRun))
	r.Get("/graph", s.withRunner(s.graph))
	r.Get("/graphs", s.listGraphs)
	r.Route("/graphs/{name}", func(r chi.Router) {
		r.Get("/", s.withRunner(s.graph))
		r.Post("/runs", s.withRunner(s.createRun))
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases the worker pool. Runs in progress finish.
func (s *Server) Close() {
	s.pool.Release()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	})
}

type runnerHandler func(w http.ResponseWriter, r *http.Request, runner Runner)

// withRunner resolves the {name} URL parameter, or the default graph when
// the route has none.
func (s *Server) withRunner(h runnerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if name == "" {
			h(w, r, s.runners.defaultRunner())
			return
		}
		runner, ok := s.runners.get(name)
		if !ok {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown graph " + name})
			return
		}
		h(w, r, runner)
	}
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) listGraphs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"graphs": s.runners.names()})
}

func (s *Server) graph(w http.ResponseWriter, _ *http.Request, runner Runner) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(runner.Graph().Mermaid(nil)))
}

// RunResponse is the body of a finished run.
type RunResponse struct {
	RunID      string         `json:"run_id"`
	Graph      string         `json:"graph"`
	Status     string         `json:"status"`
	Error      string         `json:"error,omitempty"`
	RunError   string         `json:"run_error,omitempty"`
	DurationMS int64          `json:"duration_ms"`
	State      workflow.State `json:"state"`
	Trace      []trace.Entry  `json:"trace"`
	Report     string         `json:"report,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

const maxSeedBytes = 1 << 20

func (s *Server) createRun(w http.ResponseWriter, r *http.Request, runner Runner) {
	var seed workflow.State
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSeedBytes)).Decode(&seed); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if err := runner.Validate(seed); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	type outcome struct {
		res *workflow.Result
		err error
	}
	done := make(chan outcome, 1)
	ctx := r.Context()
	err := s.pool.Submit(func() {
		res, err := runner.Execute(ctx, seed)
		done <- outcome{res, err}
	})
	if errors.Is(err, ants.ErrPoolOverload) {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many runs in progress"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}

	out := <-done
	if out.res == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: out.err.Error()})
		return
	}

	final := out.res.State
	final.Password = ""
	resp := RunResponse{
		RunID:      out.res.RunID,
		Graph:      runner.Name(),
		Status:     final.Status,
		Error:      final.Error,
		DurationMS: out.res.Duration.Milliseconds(),
		State:      final,
		Trace:      out.res.Trace,
	}
	if out.err != nil {
		resp.RunError = out.err.Error()
	}
	if r.URL.Query().Get("report") == "markdown" {
		resp.Report = report.Markdown(runner.Report(out.res))
	}

	s.logger.Info("run finished",
		slog.String("run_id", resp.RunID),
		slog.String("graph", resp.Graph),
		slog.String("status", resp.Status),
		slog.Int("retry_count", final.RetryCount))
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
