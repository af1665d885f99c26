// Package errors categorizes collaborator failures and retries the transient
// ones.
//
// Steps call content-generation, browser and test-runner providers that fail
// in different ways. A rate limit or a gateway timeout is worth retrying
// inside the step, and a missing API key is not. A reply that carries no
// usable code is a domain error that the graph routes to a reflection step.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Category represents how an error should be handled.
type Category int

const (
	// CategoryTransient: rate limits, gateway errors, request deadlines.
	CategoryTransient Category = iota

	// CategoryPermanent: bad credentials, bad requests, cancelled runs.
	CategoryPermanent

	// CategoryRepairable indicates the provider answered but the answer was
	// unusable. Resending the same request rarely helps; a reflection step
	// that feeds the failure back usually does.
	CategoryRepairable
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryPermanent:
		return "permanent"
	case CategoryRepairable:
		return "repairable"
	default:
		return "unknown"
	}
}

// CategorizedError is the final error of a retried operation.
type CategorizedError struct {
	Err      error
	Category Category

	// Attempts is the number of calls made before giving up.
	Attempts int

	// Context names the reason retrying stopped.
	Context string
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (category: %s, attempts: %d)",
			e.Context, e.Err, e.Category, e.Attempts)
	}
	return fmt.Sprintf("%s (category: %s, attempts: %d)",
		e.Err, e.Category, e.Attempts)
}

// Unwrap returns the underlying error.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// Categorize determines how an error should be handled. Errors it does not
// recognize are permanent.
func Categorize(err error) Category {
	if err == nil {
		return CategoryPermanent
	}

	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr.Category
	}

	// Provider errors that know their own retryability.
	var r interface{ Retryable() bool }
	if errors.As(err, &r) && r.Retryable() {
		return CategoryTransient
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch code := httpErr.StatusCode; {
		case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
			return CategoryTransient
		case code >= 500:
			return CategoryTransient
		default:
			return CategoryPermanent
		}
	}

	var outErr *OutputError
	if errors.As(err, &outErr) {
		return CategoryRepairable
	}

	// A cancelled run must stop; a request that hit its own deadline may not.
	if errors.Is(err, context.Canceled) {
		return CategoryPermanent
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTransient
	}
	return CategoryPermanent
}

// IsRetryable reports whether the error should be retried.
func IsRetryable(err error) bool {
	return Categorize(err) == CategoryTransient
}

// IsRepairable reports whether a reflection step might fix the failure.
func IsRepairable(err error) bool {
	return Categorize(err) == CategoryRepairable
}
