// Package configuration holds the client, search, and coordinator settings
// with environment loading, defaults, and validation.
package configuration

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ProviderConfig holds one provider's endpoint, credential, and generation
// defaults. A provider without an APIKey is treated as unavailable and
// excluded from fan-out.
type ProviderConfig struct {
	Endpoint    string            `json:"endpoint"`
	APIKey      string            `json:"-"` // sensitive, not serialized
	Model       string            `json:"model" validate:"required"`
	MaxTokens   int64             `json:"max_tokens" validate:"gt=0"`
	Temperature float64           `json:"temperature" validate:"gte=0,lte=2"`
	Timeout     time.Duration     `json:"timeout" validate:"gt=0"`
	Headers     map[string]string `json:"headers,omitempty"`
}

// SearchConfig controls the research-backend search client.
type SearchConfig struct {
	Endpoint       string        `json:"endpoint"`
	APIKey         string        `json:"-"`
	Model          string        `json:"model"`
	RequestTimeout time.Duration `json:"request_timeout" validate:"gt=0"` // per-attempt
	MaxRetries     int           `json:"max_retries" validate:"gte=0"`
	RetryBackoff   time.Duration `json:"retry_backoff" validate:"gte=0"`
	MaxSources     int           `json:"max_sources" validate:"gt=0"`
	CallsPerSecond float64       `json:"calls_per_second" validate:"gt=0"` // process-wide guard
	Burst          int           `json:"burst" validate:"gt=0"`
}

// CoordinatorConfig controls caching, deduplication, and per-user rate
// limiting around the search client.
type CoordinatorConfig struct {
	CacheTTL          time.Duration `json:"cache_ttl" validate:"gt=0"`
	OuterTimeout      time.Duration `json:"outer_timeout" validate:"gt=0"`
	RateWindow        time.Duration `json:"rate_window" validate:"gt=0"`
	SearchesPerWindow int64         `json:"searches_per_window" validate:"gt=0"`
}

// RedisConfig selects the external key-value store for multi-process
// deployments. Leaving Addr empty keeps the in-memory store.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	Addr            string        `json:"addr"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// ObservabilityConfig controls structured logging.
type ObservabilityConfig struct {
	LogLevel  string `json:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `json:"log_format" validate:"oneof=text json"`
}

// Config is the root configuration for the service.
type Config struct {
	HTTPTimeout   time.Duration             `json:"http_timeout" validate:"gt=0"`
	HTTPClient    *http.Client              `json:"-"`
	Providers     map[string]ProviderConfig `json:"providers" validate:"dive"`
	Search        SearchConfig              `json:"search"`
	Coordinator   CoordinatorConfig         `json:"coordinator"`
	Redis         RedisConfig               `json:"redis"`
	Server        ServerConfig              `json:"server"`
	Observability ObservabilityConfig       `json:"observability"`
	SynopsisModel string                    `json:"synopsis_model,omitempty"`
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Configured reports whether the provider has a usable credential. The
// orchestrator treats unavailable providers as excluded, not failed.
func (c *Config) Configured(provider string) bool {
	p, ok := c.Providers[provider]
	return ok && p.APIKey != ""
}

// ConfiguredProviders returns the ids of all providers with credentials, in
// the fixed anthropic/openai/google order.
func (c *Config) ConfiguredProviders() []string {
	var out []string
	for _, name := range []string{"anthropic", "openai", "google"} {
		if c.Configured(name) {
			out = append(out, name)
		}
	}
	return out
}

// LoadFromEnv builds a Config from environment variables on top of the
// defaults. Provider entries keep their defaults even when the key is
// absent so that Configured stays the single availability check.
func LoadFromEnv() (*Config, error) {
	cfg := DefaultConfig()

	for name, envKey := range map[string]string{
		"anthropic": "ANTHROPIC_API_KEY",
		"openai":    "OPENAI_API_KEY",
		"google":    "GOOGLE_API_KEY",
	} {
		p := cfg.Providers[name]
		p.APIKey = os.Getenv(envKey)
		if model := os.Getenv("QUORUM_" + strings.TrimSuffix(envKey, "_API_KEY") + "_MODEL"); model != "" {
			p.Model = model
		}
		cfg.Providers[name] = p
	}

	if v := os.Getenv("SEARCH_API_KEY"); v != "" {
		cfg.Search.APIKey = v
	}
	if v := os.Getenv("SEARCH_ENDPOINT"); v != "" {
		cfg.Search.Endpoint = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
	if v := os.Getenv("QUORUM_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("QUORUM_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("QUORUM_LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
