// Package llm exposes the provider-facing client used by the orchestrator.
// It assembles the transport pipeline, routes to provider adapters, and
// normalizes token accounting. Generation calls are single-shot: a failed
// call is reported, never silently retried, so token counts map one-to-one
// onto upstream billing.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/quorumai/quorum/internal/domain"
	"github.com/quorumai/quorum/internal/llm/configuration"
	llmerrors "github.com/quorumai/quorum/internal/llm/errors"
	"github.com/quorumai/quorum/internal/llm/providers"
	"github.com/quorumai/quorum/internal/llm/transport"
	"github.com/quorumai/quorum/internal/llm/usage"
)

// GenerationResult is the outcome of one successful provider call with
// normalized token counts.
type GenerationResult struct {
	Provider     string
	Model        string
	Content      string
	InputTokens  int64
	OutputTokens int64
	LatencyMs    int64
}

// SynopsisResult carries the compressed answer and its own token counts;
// synopsis calls are billed separately from generation.
type SynopsisResult struct {
	Provider     string
	Model        string
	Synopsis     string
	InputTokens  int64
	OutputTokens int64
}

// GenerateRequest is one answer-generation call against a single provider.
type GenerateRequest struct {
	Provider string
	Prompt   string
	History  []domain.ChatMessage
	Search   *domain.SearchResult
	TraceID  string
}

// Client is the interface the orchestrator fans out over.
type Client interface {
	// Generate produces a full answer from one provider. Single-shot.
	Generate(ctx context.Context, req GenerateRequest) (*GenerationResult, error)

	// Summarize re-invokes the same provider to compress content into a
	// short synopsis. Single-shot, billed with its own usage label.
	Summarize(ctx context.Context, provider, content, traceID string) (*SynopsisResult, error)
}

type client struct {
	handler transport.Handler
	config  *configuration.Config
	logger  *slog.Logger
}

// NewClient assembles the full provider pipeline: HTTP handler at the core,
// wrapped by logging middleware.
func NewClient(cfg *configuration.Config, logger *slog.Logger) (Client, error) {
	router, err := providers.NewRouter(cfg.Providers)
	if err != nil {
		return nil, fmt.Errorf("failed to build provider router: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.HTTPTimeout,
			Transport: &http.Transport{
				MaxIdleConns:    configuration.DefaultMaxIdleConns,
				IdleConnTimeout: configuration.DefaultIdleConnTimeout,
			},
		}
	}

	core := transport.NewHTTPHandler(httpClient, providers.NewTransportRouter(router))
	handler := transport.Chain(core, LoggingMiddleware(logger))

	return &client{handler: handler, config: cfg, logger: logger}, nil
}

func (c *client) Generate(ctx context.Context, req GenerateRequest) (*GenerationResult, error) {
	provider := providers.CanonicalName(req.Provider)
	pcfg, ok := c.config.Providers[provider]
	if !ok {
		return nil, llmerrors.ErrUnknownProvider
	}

	resp, err := c.handler.Handle(ctx, &transport.Request{
		Operation:   transport.OpGeneration,
		Provider:    provider,
		Model:       pcfg.Model,
		Prompt:      req.Prompt,
		History:     req.History,
		Search:      req.Search,
		MaxTokens:   pcfg.MaxTokens,
		Temperature: pcfg.Temperature,
		Timeout:     pcfg.Timeout,
		TraceID:     req.TraceID,
	})
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(resp.Content) == "" {
		return nil, llmerrors.ErrEmptyContent
	}

	in, out := usage.ExtractTokens(provider, resp.UsageMetadata)
	return &GenerationResult{
		Provider:     provider,
		Model:        pcfg.Model,
		Content:      resp.Content,
		InputTokens:  in,
		OutputTokens: out,
		LatencyMs:    resp.LatencyMs,
	}, nil
}

func (c *client) Summarize(ctx context.Context, provider, content, traceID string) (*SynopsisResult, error) {
	provider = providers.CanonicalName(provider)
	pcfg, ok := c.config.Providers[provider]
	if !ok {
		return nil, llmerrors.ErrUnknownProvider
	}

	// a dedicated synopsis model, when configured, replaces the answering
	// model for the compression call
	model := pcfg.Model
	if c.config.SynopsisModel != "" {
		model = c.config.SynopsisModel
	}

	resp, err := c.handler.Handle(ctx, &transport.Request{
		Operation:   transport.OpSynopsis,
		Provider:    provider,
		Model:       model,
		Prompt:      SynopsisPrompt(content),
		MaxTokens:   configuration.DefaultSynopsisTokens,
		Temperature: pcfg.Temperature,
		Timeout:     pcfg.Timeout,
		TraceID:     traceID,
	})
	if err != nil {
		return nil, err
	}

	synopsis := strings.TrimSpace(resp.Content)
	if synopsis == "" {
		return nil, llmerrors.ErrEmptyContent
	}

	in, out := usage.ExtractTokens(provider, resp.UsageMetadata)
	return &SynopsisResult{
		Provider:     provider,
		Model:        model,
		Synopsis:     TruncateWords(synopsis, MaxSynopsisWords),
		InputTokens:  in,
		OutputTokens: out,
	}, nil
}
