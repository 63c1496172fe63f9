// Package providers implements the HTTP adapters for the three supported
// AI backends. Each adapter validates its own credential format, builds a
// provider-specific request (including history and web-search context), and
// parses the response into the normalized transport shape.
package providers

import (
	"fmt"
	"strings"

	"github.com/quorumai/quorum/internal/llm/configuration"
	llmerrors "github.com/quorumai/quorum/internal/llm/errors"
	"github.com/quorumai/quorum/internal/llm/transport"
)

// Supported provider identifiers. These must match configuration keys.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
)

// SearchContextMode declares how an adapter consumes web-search results.
type SearchContextMode string

const (
	// SearchContextInline appends formatted search text to the prompt.
	SearchContextInline SearchContextMode = "inline"

	// SearchContextDocuments passes each source as a citation-enabled
	// document block.
	SearchContextDocuments SearchContextMode = "documents"
)

// CanonicalName maps inbound service identifiers (including the legacy
// "claude" and "gemini" aliases) to canonical provider ids. Unknown names
// return "".
func CanonicalName(service string) string {
	switch strings.ToLower(strings.TrimSpace(service)) {
	case ProviderAnthropic, "claude":
		return ProviderAnthropic
	case ProviderOpenAI, "gpt", "chatgpt":
		return ProviderOpenAI
	case ProviderGoogle, "gemini":
		return ProviderGoogle
	default:
		return ""
	}
}

// Adapter extends the transport adapter with credential validation and the
// declared search-context mode.
type Adapter interface {
	transport.ProviderAdapter

	// ValidateCredential checks the configured key's format without any
	// network call.
	ValidateCredential() error

	// SearchContextMode reports how this adapter wants search results.
	SearchContextMode() SearchContextMode
}

// Router selects the adapter for a provider id.
type Router interface {
	Pick(provider string) (Adapter, error)
}

// NewRouter creates a router with one adapter per configured provider.
func NewRouter(configs map[string]configuration.ProviderConfig) (Router, error) {
	adapters := make(map[string]Adapter, len(configs))
	for name, cfg := range configs {
		switch name {
		case ProviderAnthropic:
			adapters[name] = NewAnthropicAdapter(cfg)
		case ProviderOpenAI:
			adapters[name] = NewOpenAIAdapter(cfg)
		case ProviderGoogle:
			adapters[name] = NewGoogleAdapter(cfg)
		default:
			return nil, fmt.Errorf("%w: %s", llmerrors.ErrUnknownProvider, name)
		}
	}
	return &router{adapters: adapters}, nil
}

type router struct {
	adapters map[string]Adapter
}

func (r *router) Pick(provider string) (Adapter, error) {
	if name := CanonicalName(provider); name != "" {
		provider = name
	}
	adapter, ok := r.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", llmerrors.ErrUnknownProvider, provider)
	}
	return adapter, nil
}

// transportRouter bridges the provider router to the transport layer.
type transportRouter struct {
	router Router
}

// NewTransportRouter wraps a Router for use by the transport handler.
func NewTransportRouter(r Router) transport.Router {
	return &transportRouter{router: r}
}

func (t *transportRouter) Pick(provider string) (transport.ProviderAdapter, error) {
	return t.router.Pick(provider)
}
