package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fgerrors "github.com/randalmurphal/uitestgen/pkg/flowgraph/errors"
	"github.com/randalmurphal/uitestgen/pkg/llm"
)

var fastRetry = fgerrors.RetryConfig{
	MaxAttempts:    3,
	InitialBackoff: time.Millisecond,
	MaxBackoff:     time.Millisecond,
	BackoffFactor:  1,
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     llm.Config
		wantErr string
	}{
		{name: "openai", cfg: llm.Config{Provider: llm.ProviderOpenAI, APIKey: "k"}},
		{name: "gemini", cfg: llm.Config{Provider: llm.ProviderGemini, APIKey: "k"}},
		{name: "claude", cfg: llm.Config{Provider: llm.ProviderClaude, ClaudePath: "/bin/true", Timeout: time.Second}},
		{name: "missing", cfg: llm.Config{}, wantErr: "provider not set"},
		{name: "unknown", cfg: llm.Config{Provider: "bard"}, wantErr: `unknown provider "bard"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := llm.New(ctx, tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestError(t *testing.T) {
	cause := errors.New("connection reset")
	err := llm.NewError("openai", "complete", cause, true)

	assert.Equal(t, "openai complete: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, err.Retryable())
	assert.True(t, fgerrors.IsRetryable(err))
	assert.False(t, fgerrors.IsRetryable(llm.NewError("openai", "complete", cause, false)))
}

func TestRetrying_RetriesTransient(t *testing.T) {
	transient := llm.NewError("openai", "complete", &fgerrors.HTTPError{StatusCode: 429}, false)
	calls := 0
	mock := llm.NewMockClient("").WithCompleteFunc(func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		calls++
		if calls < 3 {
			return nil, transient
		}
		return &llm.CompletionResponse{Content: "ok"}, nil
	})

	var hooked []int
	cfg := fastRetry
	cfg.OnRetry = func(attempt int, err error, wait time.Duration) { hooked = append(hooked, attempt) }

	resp, err := llm.NewRetrying(mock, cfg, nil).Complete(context.Background(), llm.CompletionRequest{})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, hooked)
}

func TestRetrying_PermanentFailsFast(t *testing.T) {
	permanent := llm.NewError("openai", "complete", &fgerrors.HTTPError{StatusCode: 401}, false)
	mock := llm.NewMockClient("").WithError(permanent)

	_, err := llm.NewRetrying(mock, fastRetry, nil).Complete(context.Background(), llm.CompletionRequest{})

	require.Error(t, err)
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetrying_GivesUp(t *testing.T) {
	transient := llm.NewError("gemini", "complete", &fgerrors.HTTPError{StatusCode: 503}, false)
	mock := llm.NewMockClient("").WithError(transient)

	_, err := llm.NewRetrying(mock, fastRetry, nil).Complete(context.Background(), llm.CompletionRequest{})

	require.Error(t, err)
	assert.Equal(t, 3, mock.CallCount())

	var httpErr *fgerrors.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 503, httpErr.StatusCode)
}
