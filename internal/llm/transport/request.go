// Package transport defines the normalized request/response pair shared by
// all provider adapters and the composable middleware pipeline that carries
// them to the wire.
package transport

import (
	"net/http"
	"time"

	"github.com/quorumai/quorum/internal/domain"
)

// OperationType differentiates the main generation call from the synopsis
// sub-call for logging and usage labeling.
type OperationType string

const (
	// OpGeneration is the main answer-generation call.
	OpGeneration OperationType = "generation"

	// OpSynopsis is the follow-up call compressing a provider's own answer.
	OpSynopsis OperationType = "synopsis"
)

// Request is a normalized request across all providers. Adapters translate
// it into provider-specific HTTP requests.
type Request struct {
	Operation OperationType `json:"operation"`
	Provider  string        `json:"provider"` // "anthropic"|"openai"|"google"
	Model     string        `json:"model"`

	// Prompt is the user question (generation) or the compression
	// instruction plus content (synopsis).
	Prompt string `json:"prompt"`

	// History is prior conversation context, prepended chronologically.
	History []domain.ChatMessage `json:"history,omitempty"`

	// Search carries shared read-only web-search context; adapters inject
	// it according to their declared mode.
	Search *domain.SearchResult `json:"-"`

	MaxTokens   int64   `json:"max_tokens"`
	Temperature float64 `json:"temperature"`

	Timeout time.Duration `json:"timeout"`
	TraceID string        `json:"trace_id,omitempty"`
}

// Response is the normalized output of any provider call.
type Response struct {
	Content string `json:"content"`

	// UsageMetadata preserves the provider's native usage shape under a
	// "usage" key; the token accountant knows each provider's field names.
	UsageMetadata map[string]any `json:"usage_metadata"`

	FinishReason string `json:"finish_reason,omitempty"`
	LatencyMs    int64  `json:"latency_ms"`

	ProviderRequestID string      `json:"provider_request_id,omitempty"`
	Headers           http.Header `json:"-"`
	RawBody           []byte      `json:"-"`
}
