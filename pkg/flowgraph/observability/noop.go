package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
type NoopMetrics struct{}

var _ MetricsRecorder = NoopMetrics{}

func (NoopMetrics) RecordStepExecution(context.Context, string, string, time.Duration, error) {}
func (NoopMetrics) RecordRun(context.Context, string, bool, time.Duration) {}
func (NoopMetrics) RecordLoopIteration(context.Context, string, string, int) {}

// NoopSpanManager is a SpanManager that creates no spans. Start methods
// return ctx unchanged.
type NoopSpanManager struct{}

var _ SpanManager = NoopSpanManager{}

func (NoopSpanManager) StartRun(ctx context.Context, _, _, _ string) (context.Context, trace.Span) {
	return ctx, noop.Span{}
}

func (NoopSpanManager) StartStep(ctx context.Context, _ string, _ int) (context.Context, trace.Span) {
	return ctx, noop.Span{}
}

func (NoopSpanManager) Route(context.Context, string, string) {}
func (NoopSpanManager) LoopIteration(context.Context, string, int, int) {}
func (NoopSpanManager) EndStep(trace.Span, error) {}
func (NoopSpanManager) EndRun(trace.Span, int, error) {}
