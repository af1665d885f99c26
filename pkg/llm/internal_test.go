package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClaudeArgs(t *testing.T) {
	c := NewClaudeCLI()

	assert.Equal(t, []string{"--print", "--output-format", "json"}, c.args("", ""))
	assert.Equal(t,
		[]string{"--print", "--output-format", "json", "--system-prompt", "You are a QA engineer", "--model", "sonnet"},
		c.args("You are a QA engineer", "sonnet"))
}

func TestFlatten(t *testing.T) {
	assert.Equal(t, "", flatten(nil))
	assert.Equal(t, "only turn", flatten([]Message{UserMessage("only turn")}))
	assert.Equal(t,
		"User: def login(): pass\n\nAssistant: Missing waits\n\nUser: def login(): wait()",
		flatten([]Message{
			UserMessage("def login(): pass"),
			{Role: RoleAssistant, Content: "Missing waits"},
			UserMessage("def login(): wait()"),
		}))
}

func TestDecodeCLIOutput(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"plain text", "  STOP  \n", "STOP"},
		{"empty", "", ""},
		{"json result", `{"type":"result","result":" STOP "}`, "STOP"},
		{"other json", `{"type":"system"}`, `{"type":"system"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := decodeCLIOutput([]byte(tt.data))
			assert.NoError(t, err)
			assert.Equal(t, tt.want, resp.Content)
			assert.Equal(t, "stop", resp.FinishReason)
		})
	}
}

func TestTransientCLIFailure(t *testing.T) {
	tests := []struct {
		errMsg    string
		retryable bool
	}{
		{"rate limit exceeded", true},
		{"Rate Limit", true},
		{"request timeout", true},
		{"request timed out", true},
		{"server overloaded", true},
		{"503 service unavailable", true},
		{"error 529", true},
		{"invalid request", false},
		{"authentication failed", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.errMsg, func(t *testing.T) {
			assert.Equal(t, tt.retryable, transientCLIFailure(tt.errMsg))
		})
	}
}

func TestApproxTokens(t *testing.T) {
	assert.Equal(t, 1, approxTokens(CompletionRequest{}))
	assert.Equal(t, 3, approxTokens(CompletionRequest{
		SystemPrompt: "1234",
		Messages:     []Message{UserMessage("5678")},
	}))
}
