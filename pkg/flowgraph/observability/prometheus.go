package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder is a MetricsRecorder backed by Prometheus collectors.
// Expose the registry it was created with through promhttp.
type PrometheusRecorder struct {
	steps        *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	runs         *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	loops        *prometheus.CounterVec
}

// Compile-time interface check.
var _ MetricsRecorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &PrometheusRecorder{
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowgraph_step_executions_total",
				Help: "Total number of step executions",
			},
			[]string{"graph", "node_id", "status"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flowgraph_step_duration_seconds",
				Help:    "Duration of step executions",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"graph", "node_id"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowgraph_runs_total",
				Help: "Total number of graph runs",
			},
			[]string{"graph", "status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flowgraph_run_duration_seconds",
				Help:    "Duration of graph runs",
				Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
			},
			[]string{"graph"},
		),
		loops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowgraph_loop_iterations_total",
				Help: "Total number of loop continue decisions",
			},
			[]string{"graph", "loop"},
		),
	}

	for _, c := range []prometheus.Collector{r.steps, r.stepDuration, r.runs, r.runDuration, r.loops} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RecordStepExecution records a step execution.
func (r *PrometheusRecorder) RecordStepExecution(_ context.Context, graph, nodeID string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.steps.WithLabelValues(graph, nodeID, status).Inc()
	r.stepDuration.WithLabelValues(graph, nodeID).Observe(duration.Seconds())
}

// RecordRun records a graph run.
func (r *PrometheusRecorder) RecordRun(_ context.Context, graph string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	r.runs.WithLabelValues(graph, status).Inc()
	r.runDuration.WithLabelValues(graph).Observe(duration.Seconds())
}

// RecordLoopIteration records one continue decision of a loop edge.
func (r *PrometheusRecorder) RecordLoopIteration(_ context.Context, graph, loop string, _ int) {
	r.loops.WithLabelValues(graph, loop).Inc()
}
