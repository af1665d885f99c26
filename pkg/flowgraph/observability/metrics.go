package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records flowgraph metrics, labelled by graph name.
// Use NewMetricsRecorder() for OTel metrics, NewPrometheusRecorder() for a
// Prometheus registry, or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordStepExecution records a step execution with its duration and
	// domain error, if any.
	RecordStepExecution(ctx context.Context, graph, nodeID string, duration time.Duration, err error)

	// RecordRun records a graph run completion. success is false when Run
	// returned an error.
	RecordRun(ctx context.Context, graph string, success bool, duration time.Duration)

	// RecordLoopIteration records a loop edge taking its continue route.
	RecordLoopIteration(ctx context.Context, graph, loop string, counter int)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	stepExecutions metric.Int64Counter
	stepLatency    metric.Float64Histogram
	stepErrors     metric.Int64Counter
	runs           metric.Int64Counter
	runLatency     metric.Float64Histogram
	loopIterations metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the instruments of the global meter provider,
// created on first use.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics(otel.GetMeterProvider())
	})
	return defaultMetrics, defaultMetricsErr
}

// NewOtelRecorder returns a MetricsRecorder whose instruments come from mp.
func NewOtelRecorder(mp metric.MeterProvider) (MetricsRecorder, error) {
	return newOtelMetrics(mp)
}

func newOtelMetrics(mp metric.MeterProvider) (*otelMetrics, error) {
	meter := mp.Meter(TracerName)

	stepExecutions, err := meter.Int64Counter("flowgraph.step.executions",
		metric.WithDescription("Number of step executions"),
	)
	if err != nil {
		return nil, err
	}

	stepLatency, err := meter.Float64Histogram("flowgraph.step.latency_ms",
		metric.WithDescription("Step execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	stepErrors, err := meter.Int64Counter("flowgraph.step.errors",
		metric.WithDescription("Number of steps that reported a domain error"),
	)
	if err != nil {
		return nil, err
	}

	runs, err := meter.Int64Counter("flowgraph.graph.runs",
		metric.WithDescription("Number of graph runs"),
	)
	if err != nil {
		return nil, err
	}

	runLatency, err := meter.Float64Histogram("flowgraph.graph.latency_ms",
		metric.WithDescription("Graph run latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	loopIterations, err := meter.Int64Counter("flowgraph.loop.iterations",
		metric.WithDescription("Number of loop edges that took their continue route"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		stepExecutions: stepExecutions,
		stepLatency:    stepLatency,
		stepErrors:     stepErrors,
		runs:           runs,
		runLatency:     runLatency,
		loopIterations: loopIterations,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordStepExecution records a step execution.
func (m *otelMetrics) RecordStepExecution(ctx context.Context, graph, nodeID string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("graph", graph),
		attribute.String("node_id", nodeID),
	)

	m.stepExecutions.Add(ctx, 1, attrs)
	m.stepLatency.Record(ctx, float64(duration.Milliseconds()), attrs)

	if err != nil {
		m.stepErrors.Add(ctx, 1, attrs)
	}
}

// RecordRun records a graph run.
func (m *otelMetrics) RecordRun(ctx context.Context, graph string, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("graph", graph),
		attribute.Bool("success", success),
	)
	m.runs.Add(ctx, 1, attrs)
	m.runLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordLoopIteration records one continue decision of a loop edge.
func (m *otelMetrics) RecordLoopIteration(ctx context.Context, graph, loop string, counter int) {
	m.loopIterations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("graph", graph),
		attribute.String("loop", loop),
		attribute.Int("counter", counter),
	))
}
