package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of flowgraph spans.
const TracerName = "github.com/randalmurphal/uitestgen/pkg/flowgraph"

// Span names.
const (
	RunSpanName  = "flowgraph.run"
	StepSpanName = "flowgraph.step"
)

// Span event names.
const (
	EventRoute         = "route"
	EventLoopIteration = "loop.continue"
)

// SpanManager opens and closes the spans of a run. Step spans are children
// of the run span. Use NewSpanManager for OpenTelemetry or NoopSpanManager
// when tracing is off.
type SpanManager interface {
	StartRun(ctx context.Context, graph, runID, entry string) (context.Context, trace.Span)
	StartStep(ctx context.Context, nodeID string, seq int) (context.Context, trace.Span)

	// Route adds the routing decision to the step span in ctx.
	Route(ctx context.Context, outcome, to string)

	// LoopIteration adds a continue decision to the step span in ctx.
	LoopIteration(ctx context.Context, loop string, counter, max int)

	// EndStep closes a step span. A step error marks the span failed; the
	// run itself goes on.
	EndStep(span trace.Span, stepErr error)

	// EndRun closes the run span. err is the error Run returned, if any.
	EndRun(span trace.Span, steps int, err error)
}

type otelSpanManager struct {
	tracer trace.Tracer
}

// NewSpanManager returns a SpanManager that creates spans from tp.
// A nil tp uses the global tracer provider at the time of the call.
func NewSpanManager(tp trace.TracerProvider) SpanManager {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &otelSpanManager{tracer: tp.Tracer(TracerName)}
}

func (m *otelSpanManager) StartRun(ctx context.Context, graph, runID, entry string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, RunSpanName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("graph.name", graph),
			attribute.String("run.id", runID),
			attribute.String("run.entry", entry),
		))
}

func (m *otelSpanManager) StartStep(ctx context.Context, nodeID string, seq int) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, StepSpanName+"."+nodeID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("node.id", nodeID),
			attribute.Int("step.seq", seq),
		))
}

func (m *otelSpanManager) Route(ctx context.Context, outcome, to string) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(EventRoute, trace.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("to", to),
	))
}

func (m *otelSpanManager) LoopIteration(ctx context.Context, loop string, counter, max int) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(EventLoopIteration, trace.WithAttributes(
		attribute.String("loop", loop),
		attribute.Int("counter", counter),
		attribute.Int("max", max),
	))
}

func (m *otelSpanManager) EndStep(span trace.Span, stepErr error) {
	if span == nil {
		return
	}
	span.SetAttributes(attribute.Bool("step.failed", stepErr != nil))
	endSpan(span, stepErr)
}

func (m *otelSpanManager) EndRun(span trace.Span, steps int, err error) {
	if span == nil {
		return
	}
	span.SetAttributes(attribute.Int("run.steps", steps))
	endSpan(span, err)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
