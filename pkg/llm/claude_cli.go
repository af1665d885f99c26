package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ClaudeCLI implements Client by running the claude binary in print mode.
// The prompt goes to stdin: a login page's HTML easily exceeds the argument
// size limit.
type ClaudeCLI struct {
	path    string
	model   string
	timeout time.Duration
}

// ClaudeOption configures ClaudeCLI.
type ClaudeOption func(*ClaudeCLI)

// NewClaudeCLI creates a client for the "claude" binary on PATH.
func NewClaudeCLI(opts ...ClaudeOption) *ClaudeCLI {
	c := &ClaudeCLI{
		path:    "claude",
		timeout: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithClaudePath sets the path to the claude binary.
func WithClaudePath(path string) ClaudeOption {
	return func(c *ClaudeCLI) { c.path = path }
}

// WithModel sets the default model.
func WithModel(model string) ClaudeOption {
	return func(c *ClaudeCLI) { c.model = model }
}

// WithTimeout bounds each call. Zero means no bound beyond ctx.
func WithTimeout(d time.Duration) ClaudeOption {
	return func(c *ClaudeCLI) { c.timeout = d }
}

// cliResult is the document printed with --output-format json.
type cliResult struct {
	Type    string `json:"type"`
	IsError bool   `json:"is_error"`
	Result  string `json:"result"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete implements Client. MaxTokens and Temperature have no CLI flag
// and are ignored.
func (c *ClaudeCLI) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	cmd := exec.CommandContext(ctx, c.path, c.args(req.SystemPrompt, model)...)
	cmd.Stdin = strings.NewReader(flatten(req.Messages))
	// Bound the wait on pipes held open by orphaned children.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, NewError(ProviderClaude, "complete", ctx.Err(), false)
		}
		msg := strings.TrimSpace(stderr.String())
		return nil, NewError(ProviderClaude, "complete", fmt.Errorf("%w: %s", err, msg), transientCLIFailure(msg))
	}

	resp, err := decodeCLIOutput(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	resp.Model = model
	resp.Duration = time.Since(start)
	return resp, nil
}

func (c *ClaudeCLI) args(system, model string) []string {
	args := []string{"--print", "--output-format", "json"}
	if system != "" {
		args = append(args, "--system-prompt", system)
	}
	if model != "" {
		args = append(args, "--model", model)
	}
	return args
}

// decodeCLIOutput reads the JSON result document. Output that is not one,
// as printed by older binaries, is taken as the reply text.
func decodeCLIOutput(data []byte) (*CompletionResponse, error) {
	var res cliResult
	if err := json.Unmarshal(data, &res); err != nil || res.Type != "result" {
		return &CompletionResponse{
			Content:      strings.TrimSpace(string(data)),
			FinishReason: "stop",
		}, nil
	}
	if res.IsError {
		return nil, NewError(ProviderClaude, "complete", errors.New(res.Result), transientCLIFailure(res.Result))
	}
	in, out := res.Usage.InputTokens, res.Usage.OutputTokens
	return &CompletionResponse{
		Content:      strings.TrimSpace(res.Result),
		FinishReason: "stop",
		Usage:        TokenUsage{InputTokens: in, OutputTokens: out, TotalTokens: in + out},
	}, nil
}

// flatten renders the conversation as one prompt. A single message is sent
// as is; longer conversations get role labels.
func flatten(msgs []Message) string {
	if len(msgs) == 1 {
		return msgs[0].Content
	}
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if m.Role == RoleAssistant {
			b.WriteString("Assistant: ")
		} else {
			b.WriteString("User: ")
		}
		b.WriteString(m.Content)
	}
	return b.String()
}

var transientCLIMarkers = []string{"rate limit", "timeout", "timed out", "overloaded", "503", "529"}

func transientCLIFailure(msg string) bool {
	msg = strings.ToLower(msg)
	for _, m := range transientCLIMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
