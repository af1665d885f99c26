package llm_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/uitestgen/pkg/llm"
)

func complete(t *testing.T, c llm.Client, prompt string) *llm.CompletionResponse {
	t.Helper()
	resp, err := c.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{llm.UserMessage(prompt)},
	})
	require.NoError(t, err)
	return resp
}

func TestMockClient_CritiqueSequence(t *testing.T) {
	critic := llm.NewMockClient("").WithResponses("Add an explicit wait for the submit button.", "STOP")

	assert.Equal(t, "Add an explicit wait for the submit button.", complete(t, critic, "review v1").Content)
	assert.Equal(t, "STOP", complete(t, critic, "review v2").Content)
	assert.Equal(t, "Add an explicit wait for the submit button.", complete(t, critic, "review v3").Content, "responses cycle")

	require.Equal(t, 3, critic.CallCount())
	assert.Equal(t, "review v2", critic.Calls[1].Messages[0].Content)
	assert.Equal(t, "review v3", critic.LastCall().Messages[0].Content)

	critic.Reset()
	assert.Nil(t, critic.LastCall())
	assert.Equal(t, "Add an explicit wait for the submit button.", complete(t, critic, "again").Content)
}

func TestMockClient_FixedResponse(t *testing.T) {
	gen := llm.NewMockClient("```python\ndef login(driver): pass\n```")

	resp := complete(t, gen, strings.Repeat("<input>", 40))

	assert.Equal(t, "def login(driver): pass", llm.CodeBlock(resp.Content))
	assert.Equal(t, "mock", resp.Model)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 71, resp.Usage.InputTokens)
	assert.Equal(t, resp.Usage.InputTokens+resp.Usage.OutputTokens, resp.Usage.TotalTokens)
}

func TestMockClient_Failures(t *testing.T) {
	boom := errors.New("quota exhausted")
	mock := llm.NewMockClient("unused").WithError(boom)

	_, err := mock.Complete(context.Background(), llm.CompletionRequest{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, mock.CallCount(), "failed calls are still recorded")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = llm.NewMockClient("x").Complete(ctx, llm.CompletionRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockClient_CompleteFunc(t *testing.T) {
	mock := llm.NewMockClient("").WithCompleteFunc(func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return &llm.CompletionResponse{Content: "saw " + req.Messages[0].Content}, nil
	})

	assert.Equal(t, "saw login page", complete(t, mock, "login page").Content)
}
