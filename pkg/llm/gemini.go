package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	fgerrors "github.com/randalmurphal/uitestgen/pkg/flowgraph/errors"
)

// DefaultGeminiModel is used when neither the client nor the request names a model.
const DefaultGeminiModel = "gemini-1.5-flash"

// Gemini implements Client with the Gemini GenerateContent API.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGemini creates a Gemini client for the Gemini API backend.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{client: client, model: model, timeout: cfg.Timeout}, nil
}

// Complete implements Client.
func (g *Gemini) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	model := g.model
	if req.Model != "" {
		model = req.Model
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, geminiContents(req), geminiConfig(req))
	if err != nil {
		return nil, geminiError(err)
	}
	if len(resp.Candidates) == 0 {
		return nil, NewError(ProviderGemini, "complete",
			&fgerrors.OutputError{Provider: ProviderGemini, Message: "reply has no candidates"}, false)
	}

	out := &CompletionResponse{
		Content:      resp.Text(),
		Model:        model,
		FinishReason: string(resp.Candidates[0].FinishReason),
		Duration:     time.Since(start),
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = TokenUsage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
			TotalTokens:  int(u.TotalTokenCount),
		}
	}
	return out, nil
}

func geminiContents(req CompletionRequest) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.Role(role)))
	}
	return contents
}

func geminiConfig(req CompletionRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*req.Temperature))
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	return cfg
}

func geminiError(err error) error {
	var apiErr genai.APIError
	var apiPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &apiPtr) && apiPtr != nil:
		apiErr = *apiPtr
	default:
		return NewError(ProviderGemini, "complete", err, false)
	}
	return NewError(ProviderGemini, "complete", &fgerrors.HTTPError{
		StatusCode: apiErr.Code,
		Message:    apiErr.Message,
		Endpoint:   "generateContent",
	}, false)
}
