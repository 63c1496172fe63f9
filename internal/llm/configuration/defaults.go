package configuration

import "time"

// HTTP defaults.
const (
	DefaultHTTPTimeout     = 120 * time.Second
	DefaultProviderTimeout = 60 * time.Second
	DefaultMaxIdleConns    = 100
	DefaultIdleConnTimeout = 90 * time.Second
)

// Provider generation defaults. Temperature is zero so answers from
// different providers stay comparable.
const (
	DefaultMaxOutputTokens  = 4096
	DefaultTemperature      = 0.0
	DefaultSynopsisTokens   = 256
	DefaultAnthropicModel   = "claude-sonnet-4-20250514"
	DefaultOpenAIModel      = "gpt-4o"
	DefaultGoogleModel      = "gemini-2.0-flash"
	DefaultSearchModel      = "reka-flash-research"
	DefaultSearchEndpoint   = "https://api.reka.ai/v1"
	DefaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	DefaultOpenAIBaseURL    = "https://api.openai.com/v1"
	DefaultGoogleBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
)

// Search client defaults. The per-attempt timeout is long because research
// backends browse before answering; the coordinator's outer deadline is the
// short one.
const (
	DefaultSearchRequestTimeout = 90 * time.Second
	DefaultSearchMaxRetries     = 2
	DefaultSearchRetryBackoff   = 1 * time.Second
	DefaultSearchMaxSources     = 8
	DefaultSearchCallsPerSecond = 5.0
	DefaultSearchBurst          = 10
)

// Coordinator defaults matching the product limits: 15 minute cache,
// 20 searches per user per hour, 15 second outer deadline.
const (
	DefaultCacheTTL          = 15 * time.Minute
	DefaultOuterTimeout      = 15 * time.Second
	DefaultRateWindow        = time.Hour
	DefaultSearchesPerWindow = 20
)

// Server defaults.
const (
	DefaultServerAddr      = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
)

// DefaultConfig returns a production-ready configuration. Credentials are
// empty; providers become available once keys are supplied.
func DefaultConfig() *Config {
	return &Config{
		HTTPTimeout: DefaultHTTPTimeout,
		Providers: map[string]ProviderConfig{
			"anthropic": {
				Endpoint:    DefaultAnthropicBaseURL,
				Model:       DefaultAnthropicModel,
				MaxTokens:   DefaultMaxOutputTokens,
				Temperature: DefaultTemperature,
				Timeout:     DefaultProviderTimeout,
			},
			"openai": {
				Endpoint:    DefaultOpenAIBaseURL,
				Model:       DefaultOpenAIModel,
				MaxTokens:   DefaultMaxOutputTokens,
				Temperature: DefaultTemperature,
				Timeout:     DefaultProviderTimeout,
			},
			"google": {
				Endpoint:    DefaultGoogleBaseURL,
				Model:       DefaultGoogleModel,
				MaxTokens:   DefaultMaxOutputTokens,
				Temperature: DefaultTemperature,
				Timeout:     DefaultProviderTimeout,
			},
		},
		Search: SearchConfig{
			Endpoint:       DefaultSearchEndpoint,
			Model:          DefaultSearchModel,
			RequestTimeout: DefaultSearchRequestTimeout,
			MaxRetries:     DefaultSearchMaxRetries,
			RetryBackoff:   DefaultSearchRetryBackoff,
			MaxSources:     DefaultSearchMaxSources,
			CallsPerSecond: DefaultSearchCallsPerSecond,
			Burst:          DefaultSearchBurst,
		},
		Coordinator: CoordinatorConfig{
			CacheTTL:          DefaultCacheTTL,
			OuterTimeout:      DefaultOuterTimeout,
			RateWindow:        DefaultRateWindow,
			SearchesPerWindow: DefaultSearchesPerWindow,
		},
		Server: ServerConfig{
			Addr:            DefaultServerAddr,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}
