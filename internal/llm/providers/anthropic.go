package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/quorumai/quorum/internal/domain"
	"github.com/quorumai/quorum/internal/llm/configuration"
	llmerrors "github.com/quorumai/quorum/internal/llm/errors"
	"github.com/quorumai/quorum/internal/llm/transport"
)

const anthropicVersion = "2023-06-01"

// AnthropicAdapter implements the messages API. It is the one adapter that
// consumes search results as citation-enabled document blocks rather than
// inline text.
type AnthropicAdapter struct {
	config configuration.ProviderConfig
}

// NewAnthropicAdapter creates an Anthropic adapter with default endpoint.
func NewAnthropicAdapter(cfg configuration.ProviderConfig) *AnthropicAdapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = configuration.DefaultAnthropicBaseURL
	}
	return &AnthropicAdapter{config: cfg}
}

// Name returns the provider name.
func (a *AnthropicAdapter) Name() string { return ProviderAnthropic }

// SearchContextMode declares document-block citations.
func (a *AnthropicAdapter) SearchContextMode() SearchContextMode { return SearchContextDocuments }

// ValidateCredential checks the Anthropic key prefix without any network
// call.
func (a *AnthropicAdapter) ValidateCredential() error {
	if !strings.HasPrefix(a.config.APIKey, "sk-ant-") {
		return &llmerrors.CredentialError{Provider: ProviderAnthropic, Reason: "key must start with sk-ant-"}
	}
	return nil
}

// Build constructs a messages request. History is prepended in order; when
// search results are present the user turn becomes a text block followed by
// one citation-enabled document per source.
func (a *AnthropicAdapter) Build(ctx context.Context, req *transport.Request) (*http.Request, error) {
	if err := a.ValidateCredential(); err != nil {
		return nil, err
	}

	messages := historyMessages(req.History)

	var userContent any
	if req.Operation == transport.OpGeneration && req.Search != nil && req.Search.Success && len(req.Search.Sources) > 0 {
		userContent = buildCitationBlocks(req.Prompt, req.Search.Sources)
	} else {
		userContent = req.Prompt
	}
	messages = append(messages, map[string]any{
		"role":    "user",
		"content": userContent,
	})

	body := map[string]any{
		"model":       req.Model,
		"messages":    messages,
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.Endpoint+"/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.config.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}

	return httpReq, nil
}

// Parse extracts content and native usage metadata from a messages
// response.
func (a *AnthropicAdapter) Parse(httpResp *http.Response) (*transport.Response, error) {
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &llmerrors.ParseError{Provider: ProviderAnthropic, Reason: err.Error()}
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, parseAnthropicError(httpResp.StatusCode, body)
	}

	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		StopReason string `json:"stop_reason"`
		Usage      struct {
			InputTokens  int64 `json:"input_tokens"`
			OutputTokens int64 `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &llmerrors.ParseError{Provider: ProviderAnthropic, Reason: err.Error()}
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" || block.Type == "" {
			content.WriteString(block.Text)
		}
	}

	return &transport.Response{
		Content: content.String(),
		UsageMetadata: map[string]any{
			"usage": map[string]any{
				"input_tokens":  resp.Usage.InputTokens,
				"output_tokens": resp.Usage.OutputTokens,
			},
		},
		FinishReason:      resp.StopReason,
		ProviderRequestID: httpResp.Header.Get("anthropic-request-id"),
		Headers:           httpResp.Header,
		RawBody:           body,
	}, nil
}

// buildCitationBlocks assembles the text-plus-documents content array used
// when web-search context is available.
func buildCitationBlocks(prompt string, sources []domain.SearchSource) []map[string]any {
	blocks := []map[string]any{
		{
			"type": "text",
			"text": fmt.Sprintf("User question: %s\n\nPlease provide a comprehensive response "+
				"using the provided web search results. Use citations to reference specific "+
				"information from the sources.", prompt),
		},
	}

	for i, src := range sources {
		if i >= maxPromptSources {
			break
		}
		var doc strings.Builder
		fmt.Fprintf(&doc, "Title: %s\n", src.Title)
		fmt.Fprintf(&doc, "Source: %s\n", src.Domain)
		if src.PublishedDate != "" {
			fmt.Fprintf(&doc, "Published: %s\n", src.PublishedDate)
		}
		if src.Snippet != "" {
			fmt.Fprintf(&doc, "Content: %s\n", src.Snippet)
		}
		blocks = append(blocks, map[string]any{
			"type": "document",
			"source": map[string]any{
				"type":       "text",
				"media_type": "text/plain",
				"data":       doc.String(),
			},
			"citations": map[string]any{"enabled": true},
		})
	}

	return blocks
}

// parseAnthropicError converts error responses to typed ProviderError.
func parseAnthropicError(statusCode int, body []byte) error {
	var errResp struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return &llmerrors.ProviderError{
			Provider:   ProviderAnthropic,
			StatusCode: statusCode,
			Message:    errResp.Error.Message,
			Code:       errResp.Error.Type,
			Type:       llmerrors.ClassifyStatus(statusCode, errResp.Error.Type),
		}
	}

	return &llmerrors.ProviderError{
		Provider:   ProviderAnthropic,
		StatusCode: statusCode,
		Message:    string(body),
		Type:       llmerrors.ClassifyStatus(statusCode, ""),
	}
}
