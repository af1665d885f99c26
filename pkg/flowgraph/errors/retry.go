package errors

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// RetryConfig is the retry policy of one collaborator.
type RetryConfig struct {
	// MaxAttempts counts the first call. Values below 1 mean a single call.
	MaxAttempts int

	// InitialBackoff is the wait after the first failure. It grows by
	// BackoffFactor after each further failure, up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64

	// Jitter spreads each wait by up to this fraction either way.
	Jitter float64

	// RetryableFunc replaces IsRetryable when set.
	RetryableFunc func(error) bool

	// OnRetry, if set, is called before each backoff sleep with the attempt
	// that just failed (1-based), its error and the chosen wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultRetry suits plain HTTP fetches.
var DefaultRetry = RetryConfig{
	MaxAttempts:    3,
	InitialBackoff: 1 * time.Second,
	MaxBackoff:     30 * time.Second,
	BackoffFactor:  2.0,
	Jitter:         0.1,
}

// ProviderRetry suits content-generation APIs, whose rate limits reset over
// tens of seconds.
var ProviderRetry = RetryConfig{
	MaxAttempts:    4,
	InitialBackoff: 2 * time.Second,
	MaxBackoff:     45 * time.Second,
	BackoffFactor:  2.0,
	Jitter:         0.2,
}

// NoRetry disables retries.
var NoRetry = RetryConfig{
	MaxAttempts: 1,
}

// Backoff returns the wait after the given failed attempt (1-based). A
// Retry-After carried by err takes precedence when it is longer, still
// capped by MaxBackoff.
func (c RetryConfig) Backoff(attempt int, err error) time.Duration {
	wait := c.InitialBackoff
	for i := 1; i < attempt && (c.MaxBackoff <= 0 || wait < c.MaxBackoff); i++ {
		wait = time.Duration(float64(wait) * c.BackoffFactor)
	}
	if c.Jitter > 0 {
		wait += time.Duration(float64(wait) * c.Jitter * (rand.Float64()*2 - 1))
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > wait {
		wait = httpErr.RetryAfter
	}
	if c.MaxBackoff > 0 && wait > c.MaxBackoff {
		wait = c.MaxBackoff
	}
	if wait < 0 {
		wait = 0
	}
	return wait
}

func (c RetryConfig) retryable(err error) bool {
	if c.RetryableFunc != nil {
		return c.RetryableFunc(err)
	}
	return IsRetryable(err)
}

// RetryResult is the outcome of WithRetryContext.
type RetryResult[T any] struct {
	Value T

	// Err is nil on success, otherwise a *CategorizedError wrapping the
	// last failure.
	Err error

	Attempts int
	Duration time.Duration
}

// WithRetryContext calls fn until it succeeds, fails with a non-retryable
// error, runs out of attempts or ctx is done.
func WithRetryContext[T any](
	ctx context.Context,
	cfg RetryConfig,
	fn func(context.Context) (T, error),
) RetryResult[T] {
	start := time.Now()
	maxAttempts := max(cfg.MaxAttempts, 1)

	fail := func(err error, cat Category, attempts int, reason string) RetryResult[T] {
		return RetryResult[T]{
			Err:      &CategorizedError{Err: err, Category: cat, Attempts: attempts, Context: reason},
			Attempts: attempts,
			Duration: time.Since(start),
		}
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return fail(err, CategoryPermanent, attempt-1, "context cancelled")
		}

		v, err := fn(ctx)
		if err == nil {
			return RetryResult[T]{Value: v, Attempts: attempt, Duration: time.Since(start)}
		}
		if !cfg.retryable(err) {
			return fail(err, Categorize(err), attempt, "")
		}
		if attempt == maxAttempts {
			return fail(err, Categorize(err), attempt, "max retries exceeded")
		}

		wait := cfg.Backoff(attempt, err)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, wait)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fail(ctx.Err(), CategoryPermanent, attempt, "context cancelled during backoff")
		case <-timer.C:
		}
	}
}

// Do runs fn with retries and returns only the final error.
func Do(ctx context.Context, cfg RetryConfig, fn func(context.Context) error) error {
	res := WithRetryContext(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return res.Err
}
