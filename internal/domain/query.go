// Package domain defines the core value types shared across the aggregation
// pipeline: the immutable Query, per-provider results, search results, and
// the usage records emitted to the persistence collaborator.
package domain

import (
	"strings"
	"time"
	"unicode"
)

// Location is an optional geolocation hint attached to a query.
// Country is expected to be an ISO-3166-1 alpha-2 code; validation happens
// at the search boundary, not here.
type Location struct {
	City    string `json:"city,omitempty"`
	Region  string `json:"region,omitempty"`
	Country string `json:"country,omitempty"`
}

// IsZero reports whether the location carries no usable fields.
func (l *Location) IsZero() bool {
	return l == nil || (l.City == "" && l.Region == "" && l.Country == "")
}

// HasValidCountry reports whether Country is exactly two alphabetic
// characters. An invalid country code drops the whole location rather than
// failing the search.
func (l *Location) HasValidCountry() bool {
	if l == nil || len(l.Country) != 2 {
		return false
	}
	for _, r := range l.Country {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// Canonical returns a stable string form of the location for cache keying.
// Fields are lower-cased and joined so that equivalent hints hash equally.
func (l *Location) Canonical() string {
	if l.IsZero() {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(l.City)) + "|" +
		strings.ToLower(strings.TrimSpace(l.Region)) + "|" +
		strings.ToLower(strings.TrimSpace(l.Country))
}

// Chat roles carried in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of prior conversation context, prepended in
// chronological order when building provider requests.
type ChatMessage struct {
	Role    string `json:"role"` // RoleUser or RoleAssistant
	Content string `json:"content"`
}

// Query is the immutable input to one orchestration run. It is created per
// request and never mutated; durable persistence of queries belongs to the
// external persistence collaborator.
type Query struct {
	ID             string        `json:"id"`
	Message        string        `json:"message"`
	Services       []string      `json:"services"`
	History        []ChatMessage `json:"history,omitempty"`
	UseWebSearch   bool          `json:"use_web_search"`
	UserID         *string       `json:"user_id,omitempty"`
	ConversationID *string       `json:"conversation_id,omitempty"`
	Location       *Location     `json:"location,omitempty"`
	ReceivedAt     time.Time     `json:"received_at"`
}

// ProviderResult is the outcome of one provider's generation attempt.
// It is owned exclusively by the fan-out task that produced it and written
// once. Token fields are zero whenever Success is false.
type ProviderResult struct {
	Provider     string `json:"service"`
	Success      bool   `json:"success"`
	Content      string `json:"content,omitempty"`
	Synopsis     string `json:"synopsis,omitempty"`
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`
	Err          string `json:"error,omitempty"`
}

// TotalTokens is the billing total for this result.
func (r *ProviderResult) TotalTokens() int64 { return r.InputTokens + r.OutputTokens }

// Response is the aggregated result set for one Query.
type Response struct {
	QueryID          string           `json:"query_id"`
	Results          []ProviderResult `json:"results"`
	WebSearchEnabled bool             `json:"web_search_enabled"`
	WebSearchSources []SearchSource   `json:"web_search_sources"`
	SearchCallsMade  int              `json:"search_calls_made"`
	SearchError      string           `json:"search_error,omitempty"`
	Timestamp        time.Time        `json:"timestamp"`
}
