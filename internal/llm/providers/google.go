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

// GoogleAdapter implements the generateContent API with inline search
// context. The API key travels in the URL rather than a header.
type GoogleAdapter struct {
	config configuration.ProviderConfig
}

// NewGoogleAdapter creates a Google adapter with default endpoint.
func NewGoogleAdapter(cfg configuration.ProviderConfig) *GoogleAdapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = configuration.DefaultGoogleBaseURL
	}
	return &GoogleAdapter{config: cfg}
}

// Name returns the provider name.
func (a *GoogleAdapter) Name() string { return ProviderGoogle }

// SearchContextMode declares inline text injection.
func (a *GoogleAdapter) SearchContextMode() SearchContextMode { return SearchContextInline }

// ValidateCredential rejects empty keys and keys containing whitespace.
func (a *GoogleAdapter) ValidateCredential() error {
	if a.config.APIKey == "" {
		return &llmerrors.CredentialError{Provider: ProviderGoogle, Reason: "key is empty"}
	}
	if strings.ContainsAny(a.config.APIKey, " \t\n\r") {
		return &llmerrors.CredentialError{Provider: ProviderGoogle, Reason: "key contains whitespace"}
	}
	return nil
}

// Build constructs a generateContent request. Conversation history maps to
// alternating user/model contents; search context is inlined into the final
// user turn.
func (a *GoogleAdapter) Build(ctx context.Context, req *transport.Request) (*http.Request, error) {
	if err := a.ValidateCredential(); err != nil {
		return nil, err
	}

	contents := make([]map[string]any, 0, len(req.History)+1)
	for _, msg := range req.History {
		role := msg.Role
		if role == domain.RoleAssistant {
			role = "model"
		}
		contents = append(contents, map[string]any{
			"role":  role,
			"parts": []map[string]any{{"text": msg.Content}},
		})
	}

	prompt := req.Prompt
	if req.Operation == transport.OpGeneration {
		prompt = EnhancePrompt(prompt, req.Search)
	}
	contents = append(contents, map[string]any{
		"role":  "user",
		"parts": []map[string]any{{"text": prompt}},
	})

	body := map[string]any{
		"contents": contents,
		"generationConfig": map[string]any{
			"temperature":     req.Temperature,
			"maxOutputTokens": req.MaxTokens,
		},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", a.config.Endpoint, req.Model, a.config.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}

	return httpReq, nil
}

// Parse extracts candidate text and native usage metadata from a
// generateContent response.
func (a *GoogleAdapter) Parse(httpResp *http.Response) (*transport.Response, error) {
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &llmerrors.ParseError{Provider: ProviderGoogle, Reason: err.Error()}
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, parseGoogleError(httpResp.StatusCode, body)
	}

	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		UsageMetadata struct {
			PromptTokenCount     int64 `json:"promptTokenCount"`
			CandidatesTokenCount int64 `json:"candidatesTokenCount"`
			TotalTokenCount      int64 `json:"totalTokenCount"`
		} `json:"usageMetadata"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &llmerrors.ParseError{Provider: ProviderGoogle, Reason: err.Error()}
	}

	var content, finishReason string
	if len(resp.Candidates) > 0 {
		var sb strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			sb.WriteString(part.Text)
		}
		content = sb.String()
		finishReason = resp.Candidates[0].FinishReason
	}

	return &transport.Response{
		Content: content,
		UsageMetadata: map[string]any{
			"usage": map[string]any{
				"promptTokenCount":     resp.UsageMetadata.PromptTokenCount,
				"candidatesTokenCount": resp.UsageMetadata.CandidatesTokenCount,
				"totalTokenCount":      resp.UsageMetadata.TotalTokenCount,
			},
		},
		FinishReason: finishReason,
		Headers:      httpResp.Header,
		RawBody:      body,
	}, nil
}

// parseGoogleError converts error responses to typed ProviderError.
func parseGoogleError(statusCode int, body []byte) error {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return &llmerrors.ProviderError{
			Provider:   ProviderGoogle,
			StatusCode: statusCode,
			Message:    errResp.Error.Message,
			Code:       errResp.Error.Status,
			Type:       llmerrors.ClassifyStatus(statusCode, errResp.Error.Status),
		}
	}

	return &llmerrors.ProviderError{
		Provider:   ProviderGoogle,
		StatusCode: statusCode,
		Message:    string(body),
		Type:       llmerrors.ClassifyStatus(statusCode, ""),
	}
}
