package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		errorCode  string
		want       ErrorType
	}{
		{name: "429", statusCode: 429, want: ErrorTypeRateLimit},
		{name: "401", statusCode: 401, want: ErrorTypeCredential},
		{name: "403", statusCode: 403, want: ErrorTypeCredential},
		{name: "400", statusCode: 400, want: ErrorTypeValidation},
		{name: "500", statusCode: 500, want: ErrorTypeProvider},
		{name: "503", statusCode: 503, want: ErrorTypeProvider},
		{name: "504", statusCode: 504, want: ErrorTypeTimeout},
		{name: "418 unclassified", statusCode: 418, want: ErrorTypeUnknown},
		// provider codes win over the status line
		{name: "rate limit code on 400", statusCode: 400, errorCode: "rate_limit_error", want: ErrorTypeRateLimit},
		{name: "api key code on 400", statusCode: 400, errorCode: "invalid_api_key", want: ErrorTypeCredential},
		{name: "timeout code on 500", statusCode: 500, errorCode: "request_timeout", want: ErrorTypeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStatus(tt.statusCode, tt.errorCode))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: ErrorTypeTimeout},
		{name: "wrapped deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), want: ErrorTypeTimeout},
		{name: "cancelled", err: context.Canceled, want: ErrorTypeCancelled},
		{name: "credential", err: &CredentialError{Provider: "openai"}, want: ErrorTypeCredential},
		{name: "provider carries its own type", err: &ProviderError{Type: ErrorTypeRateLimit}, want: ErrorTypeRateLimit},
		{name: "user rate limit", err: &RateLimitError{UserID: "u"}, want: ErrorTypeRateLimit},
		{name: "parse", err: &ParseError{Provider: "google"}, want: ErrorTypeParse},
		{name: "plain error", err: stderrors.New("boom"), want: ErrorTypeUnknown},
		{name: "nil", err: nil, want: ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "timeout", err: context.DeadlineExceeded, want: true},
		{name: "upstream 429", err: &ProviderError{StatusCode: 429, Type: ErrorTypeRateLimit}, want: true},
		{name: "upstream 503", err: &ProviderError{StatusCode: 503, Type: ErrorTypeProvider}, want: true},
		{name: "upstream 400", err: &ProviderError{StatusCode: 400, Type: ErrorTypeValidation}, want: false},
		{name: "credential", err: &CredentialError{Provider: "openai"}, want: false},
		{name: "own limiter is terminal", err: &RateLimitError{UserID: "u"}, want: false},
		{name: "parse", err: &ParseError{Provider: "google"}, want: false},
		{name: "cancellation", err: context.Canceled, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
