/*
Package llm provides the content-generation clients used by workflow steps.

# Overview

Every provider implements Client, a single blocking completion call:

	type Client interface {
	    Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	}

Implementations:

  - OpenAI wraps github.com/openai/openai-go chat completions
  - Gemini wraps google.golang.org/genai GenerateContent
  - ClaudeCLI shells out to the claude binary
  - MockClient returns canned replies for tests

# Choosing a Provider

New builds a client from a Config, typically decoded from the "generator"
or "critic" section of the configuration file:

	client, err := llm.New(ctx, llm.Config{
	    Provider: "openai",
	    Model:    "gpt-4o-mini",
	    APIKey:   os.Getenv("OPENAI_API_KEY"),
	})

# Retries

Provider failures are mapped onto the error types of
pkg/flowgraph/errors, so HTTP 429 and 5xx replies are transient. Retrying
wraps any Client and retries transient failures with backoff:

	client = llm.NewRetrying(client, errors.ProviderRetry, logger)

# Replies

CodeBlock pulls the first fenced code block out of a reply and IsStop
recognizes the critique protocol's "STOP" answer.
*/
package llm
