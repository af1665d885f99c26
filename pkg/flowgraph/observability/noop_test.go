package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopSpanManager(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	m := NoopSpanManager{}

	runCtx, run := m.StartRun(ctx, "login_test", "run-1", "check_auth")
	stepCtx, step := m.StartStep(runCtx, "load_page", 1)

	assert.Equal(t, ctx, runCtx)
	assert.Equal(t, ctx, stepCtx)
	assert.False(t, run.IsRecording())
	assert.False(t, step.IsRecording())

	assert.NotPanics(t, func() {
		m.Route(stepCtx, "done", "END")
		m.LoopIteration(stepCtx, "retry_count", 1, 3)
		m.EndStep(step, errors.New("boom"))
		m.EndRun(run, 1, nil)
	})
}

func TestNoopMetrics(t *testing.T) {
	assert.NotPanics(t, func() {
		m := NoopMetrics{}
		m.RecordStepExecution(context.Background(), "g", "n", time.Millisecond, errors.New("x"))
		m.RecordRun(context.Background(), "g", false, time.Millisecond)
		m.RecordLoopIteration(context.Background(), "g", "retry_count", 1)
	})
}
