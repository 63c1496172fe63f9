// Package errors defines the typed failure taxonomy for provider and search
// calls. Errors are classified at the lowest layer that can name them and
// converted to failure results before they reach the fan-out boundary.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType categorizes upstream failures for retry classification and
// result reporting.
type ErrorType string

const (
	// ErrorTypeCredential indicates a malformed credential detected before
	// any network call (non-retryable, fail fast).
	ErrorTypeCredential ErrorType = "invalid_credential"

	// ErrorTypeTimeout indicates a deadline elapsed (retryable).
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeRateLimit indicates a 429-equivalent from upstream or from
	// the coordinator's own per-user limiter (retryable upstream, terminal
	// from the limiter).
	ErrorTypeRateLimit ErrorType = "rate_limited"

	// ErrorTypeNetwork indicates connectivity failure (retryable).
	ErrorTypeNetwork ErrorType = "network"

	// ErrorTypeProvider indicates a non-2xx upstream response (5xx retryable).
	ErrorTypeProvider ErrorType = "upstream_http"

	// ErrorTypeParse indicates a malformed or unexpected response shape.
	ErrorTypeParse ErrorType = "parse"

	// ErrorTypeCancelled indicates caller-initiated cancellation.
	ErrorTypeCancelled ErrorType = "cancelled"

	// ErrorTypeValidation indicates input validation failed.
	ErrorTypeValidation ErrorType = "validation"

	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = "unknown"
)

// Sentinel errors shared across the pipeline.
var (
	// ErrUnknownProvider indicates an unknown or unconfigured provider id.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrNoCredential indicates a requested provider has no configured
	// credential; the provider is excluded from fan-out, not an error for
	// the whole request.
	ErrNoCredential = errors.New("no credential configured")

	// ErrSearchUnavailable indicates the search backend is not configured.
	ErrSearchUnavailable = errors.New("search backend not configured")

	// ErrEmptyContent indicates a provider returned a 2xx response with no
	// usable content.
	ErrEmptyContent = errors.New("provider returned empty content")
)

// CredentialError reports a credential that fails its provider's format
// check. It is raised before any request is built, so no network call is
// ever billed for it.
type CredentialError struct {
	Provider string `json:"provider"`
	Reason   string `json:"reason"`
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("invalid %s credential: %s", e.Provider, e.Reason)
}

// ProviderError captures a structured non-2xx response from a provider or
// the search backend.
type ProviderError struct {
	Provider   string    `json:"provider"`
	StatusCode int       `json:"status_code"`
	Message    string    `json:"message"`
	Code       string    `json:"code,omitempty"`
	Type       ErrorType `json:"type"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds from Retry-After
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsRetryable reports whether the failure is transient.
func (e *ProviderError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeTimeout, ErrorTypeRateLimit, ErrorTypeNetwork:
		return true
	case ErrorTypeProvider:
		return e.StatusCode >= http.StatusInternalServerError
	default:
		return false
	}
}

// GetRetryAfter returns upstream backoff guidance, or zero when absent.
func (e *ProviderError) GetRetryAfter() time.Duration {
	if e.RetryAfter > 0 {
		return time.Duration(e.RetryAfter) * time.Second
	}
	return 0
}

// RateLimitError reports exhaustion of the coordinator's own per-user
// search budget. No upstream call was made.
type RateLimitError struct {
	UserID    string `json:"user_id"`
	Limit     int64  `json:"limit"`
	WindowSec int    `json:"window_sec"`
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("search rate limit exceeded for user %s (%d per %ds)", e.UserID, e.Limit, e.WindowSec)
}

// ParseError reports a response body the adapter could not interpret.
type ParseError struct {
	Provider string `json:"provider"`
	Reason   string `json:"reason"`
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s response parse failed: %s", e.Provider, e.Reason)
}
