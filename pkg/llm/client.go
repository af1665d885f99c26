package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	fgerrors "github.com/randalmurphal/uitestgen/pkg/flowgraph/errors"
)

// Client is a blocking completion provider.
// Implementations must be safe for concurrent use.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// Error is returned by providers for failed calls.
type Error struct {
	// Op is the operation that failed, e.g. "complete".
	Op string
	// Provider names the backend ("openai", "gemini", "claude").
	Provider string
	// Err is the underlying error.
	Err error

	retryable bool
}

// NewError creates a provider error.
func NewError(provider, op string, err error, retryable bool) *Error {
	return &Error{Op: op, Provider: provider, Err: err, retryable: retryable}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the call may succeed if repeated.
// This is what fgerrors.Categorize consults for provider errors.
func (e *Error) Retryable() bool {
	return e.retryable
}

// Config selects and configures a provider.
type Config struct {
	Provider string        `mapstructure:"provider"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`

	// ClaudePath is the claude binary used by the "claude" provider.
	ClaudePath string `mapstructure:"claude_path"`
}

// Provider names accepted by New.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
)

// New builds the client named by cfg.Provider.
func New(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAI(cfg), nil
	case ProviderGemini:
		return NewGemini(ctx, cfg)
	case ProviderClaude:
		opts := []ClaudeOption{WithModel(cfg.Model)}
		if cfg.ClaudePath != "" {
			opts = append(opts, WithClaudePath(cfg.ClaudePath))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, WithTimeout(cfg.Timeout))
		}
		return NewClaudeCLI(opts...), nil
	case "":
		return nil, fmt.Errorf("llm: provider not set")
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

// Retrying retries transient failures of the wrapped client.
type Retrying struct {
	client Client
	cfg    fgerrors.RetryConfig
	logger *slog.Logger
}

// NewRetrying wraps client with the given retry policy.
// Retries are logged at warn level; a nil logger uses slog.Default().
func NewRetrying(client Client, cfg fgerrors.RetryConfig, logger *slog.Logger) *Retrying {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrying{client: client, cfg: cfg, logger: logger}
}

// Complete implements Client.
func (r *Retrying) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	cfg := r.cfg
	hook := cfg.OnRetry
	cfg.OnRetry = func(attempt int, err error, wait time.Duration) {
		r.logger.Warn("completion failed, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()))
		if hook != nil {
			hook(attempt, err, wait)
		}
	}

	res := fgerrors.WithRetryContext(ctx, cfg, func(ctx context.Context) (*CompletionResponse, error) {
		return r.client.Complete(ctx, req)
	})
	if res.Err != nil {
		return nil, res.Err
	}
	r.logger.Debug("completion finished",
		slog.String("model", res.Value.Model),
		slog.Int("attempts", res.Attempts),
		slog.Int("input_tokens", res.Value.Usage.InputTokens),
		slog.Int("output_tokens", res.Value.Usage.OutputTokens),
		slog.Int64("duration_ms", res.Duration.Milliseconds()))
	return res.Value, nil
}
