package errors

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
)

// ClassifyStatus maps an HTTP status plus an optional provider error code to
// an ErrorType. Codes win over statuses so that providers reporting rate
// limits with a 400 body are still classified correctly.
func ClassifyStatus(statusCode int, errorCode string) ErrorType {
	lowerCode := strings.ToLower(errorCode)
	switch {
	case strings.Contains(lowerCode, "rate") || strings.Contains(lowerCode, "limit"):
		return ErrorTypeRateLimit
	case strings.Contains(lowerCode, "timeout"):
		return ErrorTypeTimeout
	case strings.Contains(lowerCode, "auth") || strings.Contains(lowerCode, "unauthorized") ||
		strings.Contains(lowerCode, "api_key") || strings.Contains(lowerCode, "permission"):
		return ErrorTypeCredential
	}

	switch statusCode {
	case http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrorTypeCredential
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ErrorTypeTimeout
	case http.StatusBadRequest:
		return ErrorTypeValidation
	default:
		if statusCode >= http.StatusInternalServerError {
			return ErrorTypeProvider
		}
		return ErrorTypeUnknown
	}
}

// Classify resolves any pipeline error to its ErrorType. Context errors are
// split into timeout vs. caller cancellation; unclassified errors carrying
// net failures map to network.
func Classify(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ErrorTypeCancelled
	}

	var credErr *CredentialError
	if errors.As(err, &credErr) {
		return ErrorTypeCredential
	}
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Type
	}
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return ErrorTypeRateLimit
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return ErrorTypeParse
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorTypeTimeout
		}
		return ErrorTypeNetwork
	}

	return ErrorTypeUnknown
}

// IsRetryable reports whether an error warrants another attempt. Only the
// search client retries; provider generation calls are single-shot to keep
// billing exact.
func IsRetryable(err error) bool {
	switch Classify(err) {
	case ErrorTypeTimeout, ErrorTypeNetwork:
		return true
	case ErrorTypeRateLimit:
		// The coordinator's own limiter is terminal; upstream 429s retry.
		var rlErr *RateLimitError
		return !errors.As(err, &rlErr)
	case ErrorTypeProvider:
		var provErr *ProviderError
		if errors.As(err, &provErr) {
			return provErr.IsRetryable()
		}
		return false
	default:
		return false
	}
}
