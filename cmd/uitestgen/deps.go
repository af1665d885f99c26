package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/randalmurphal/uitestgen/pkg/browser"
	fgerrors "github.com/randalmurphal/uitestgen/pkg/flowgraph/errors"
	"github.com/randalmurphal/uitestgen/pkg/llm"
	"github.com/randalmurphal/uitestgen/pkg/testrunner"
	"github.com/randalmurphal/uitestgen/pkg/tokenstore"
	"github.com/randalmurphal/uitestgen/pkg/workflow"
)

// client builds a provider client that retries transient failures.
func (a *app) client(ctx context.Context, cfg llm.Config) (llm.Client, error) {
	c, err := llm.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return llm.NewRetrying(c, fgerrors.ProviderRetry, a.logger.With("provider", cfg.Provider)), nil
}

// deps wires the production collaborators of the workflow graphs. The
// returned close function releases the token store.
func (a *app) deps(ctx context.Context) (workflow.Deps, func() error, error) {
	s := a.settings

	generator, err := a.client(ctx, s.Generator)
	if err != nil {
		return workflow.Deps{}, nil, fmt.Errorf("generator: %w", err)
	}
	critic, err := a.client(ctx, s.Critic)
	if err != nil {
		return workflow.Deps{}, nil, fmt.Errorf("critic: %w", err)
	}

	store, err := tokenstore.Open(s.TokenStore)
	if err != nil {
		return workflow.Deps{}, nil, err
	}

	return workflow.Deps{
		Generator: generator,
		Critic:    critic,
		Loader:    browser.NewRodLoader(browser.WithHeadless(s.Headless)),
		Tests: testrunner.NewExecRunner(
			testrunner.WithCommand(s.TestCommand...),
			testrunner.WithTimeout(s.TestTimeout)),
		Tokens:     store,
		FetchRetry: fgerrors.DefaultRetry,
		Settings:   s,
	}, store.Close, nil
}

// specDeps wires only what the spec graph needs.
func (a *app) specDeps(ctx context.Context) (workflow.Deps, error) {
	generator, err := a.client(ctx, a.settings.Generator)
	if err != nil {
		return workflow.Deps{}, fmt.Errorf("generator: %w", err)
	}
	return workflow.Deps{Generator: generator, Settings: a.settings}, nil
}

// errRunFailed makes the process exit non-zero after a failed run has been
// reported.
var errRunFailed = errors.New("run failed")
