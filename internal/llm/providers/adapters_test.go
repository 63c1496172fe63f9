package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumai/quorum/internal/domain"
	"github.com/quorumai/quorum/internal/llm/configuration"
	llmerrors "github.com/quorumai/quorum/internal/llm/errors"
	"github.com/quorumai/quorum/internal/llm/transport"
)

func testCfg(key string) configuration.ProviderConfig {
	return configuration.ProviderConfig{APIKey: key, Model: "test-model"}
}

func decodeBody(t *testing.T, req *http.Request) map[string]any {
	t.Helper()
	data, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	return body
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "anthropic", want: "anthropic"},
		{in: "claude", want: "anthropic"},
		{in: "Claude", want: "anthropic"},
		{in: "openai", want: "openai"},
		{in: "gpt", want: "openai"},
		{in: "chatgpt", want: "openai"},
		{in: "google", want: "google"},
		{in: "gemini", want: "google"},
		{in: "mistral", want: ""},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanonicalName(tt.in), "service %q", tt.in)
	}
}

func TestValidateCredential(t *testing.T) {
	tests := []struct {
		name    string
		adapter Adapter
		wantErr bool
	}{
		{name: "anthropic valid", adapter: NewAnthropicAdapter(testCfg("sk-ant-abc123"))},
		{name: "anthropic wrong prefix", adapter: NewAnthropicAdapter(testCfg("sk-abc123")), wantErr: true},
		{name: "anthropic empty", adapter: NewAnthropicAdapter(testCfg("")), wantErr: true},
		{name: "openai valid", adapter: NewOpenAIAdapter(testCfg("sk-abc123"))},
		{name: "openai wrong prefix", adapter: NewOpenAIAdapter(testCfg("key-abc")), wantErr: true},
		{name: "google valid", adapter: NewGoogleAdapter(testCfg("AIzaSyAbc123"))},
		{name: "google empty", adapter: NewGoogleAdapter(testCfg("")), wantErr: true},
		{name: "google whitespace", adapter: NewGoogleAdapter(testCfg("AIza abc")), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.adapter.ValidateCredential()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var credErr *llmerrors.CredentialError
			require.ErrorAs(t, err, &credErr)
			assert.Equal(t, tt.adapter.Name(), credErr.Provider)
		})
	}
}

func TestBuildFailsFastOnBadCredential(t *testing.T) {
	adapters := []Adapter{
		NewAnthropicAdapter(testCfg("bad")),
		NewOpenAIAdapter(testCfg("bad")),
		NewGoogleAdapter(testCfg("")),
	}
	for _, a := range adapters {
		_, err := a.Build(context.Background(), &transport.Request{
			Operation: transport.OpGeneration, Model: "m", Prompt: "q",
		})
		var credErr *llmerrors.CredentialError
		assert.ErrorAs(t, err, &credErr, "adapter %s", a.Name())
	}
}

func TestAnthropicBuild(t *testing.T) {
	a := NewAnthropicAdapter(testCfg("sk-ant-abc"))
	req, err := a.Build(context.Background(), &transport.Request{
		Operation: transport.OpGeneration,
		Model:     "claude-sonnet-4-20250514",
		Prompt:    "what is Go",
		History: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: "hi"},
			{Role: domain.RoleAssistant, Content: "hello"},
		},
		MaxTokens:   1024,
		Temperature: 0,
	})
	require.NoError(t, err)

	assert.Equal(t, "sk-ant-abc", req.Header.Get("x-api-key"))
	assert.Equal(t, anthropicVersion, req.Header.Get("anthropic-version"))
	assert.True(t, strings.HasSuffix(req.URL.Path, "/messages"))

	body := decodeBody(t, req)
	messages := body["messages"].([]any)
	require.Len(t, messages, 3, "history precedes the new turn")
	last := messages[2].(map[string]any)
	assert.Equal(t, "user", last["role"])
	assert.Equal(t, "what is Go", last["content"])
	assert.Equal(t, float64(0), body["temperature"])
}

func TestAnthropicBuildCitationBlocks(t *testing.T) {
	a := NewAnthropicAdapter(testCfg("sk-ant-abc"))
	req, err := a.Build(context.Background(), &transport.Request{
		Operation: transport.OpGeneration,
		Model:     "m",
		Prompt:    "what happened today",
		Search: &domain.SearchResult{
			Success: true,
			Content: "the search answer",
			Sources: []domain.SearchSource{
				{Title: "News", URL: "https://n.example", Domain: "n.example", Snippet: "a thing happened"},
				{Title: "More", URL: "https://m.example", Domain: "m.example", Snippet: "another thing"},
			},
		},
	})
	require.NoError(t, err)

	body := decodeBody(t, req)
	messages := body["messages"].([]any)
	content := messages[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 3, "text block plus one document per source")

	text := content[0].(map[string]any)
	assert.Equal(t, "text", text["type"])

	doc := content[1].(map[string]any)
	assert.Equal(t, "document", doc["type"])
	citations := doc["citations"].(map[string]any)
	assert.Equal(t, true, citations["enabled"])
	source := doc["source"].(map[string]any)
	assert.Equal(t, "text", source["type"])
	assert.Contains(t, source["data"], "a thing happened")
}

func TestAnthropicSynopsisIgnoresSearch(t *testing.T) {
	a := NewAnthropicAdapter(testCfg("sk-ant-abc"))
	req, err := a.Build(context.Background(), &transport.Request{
		Operation: transport.OpSynopsis,
		Model:     "m",
		Prompt:    "summarize this",
		Search: &domain.SearchResult{
			Success: true,
			Sources: []domain.SearchSource{{Title: "T", URL: "https://t.example"}},
		},
	})
	require.NoError(t, err)

	body := decodeBody(t, req)
	messages := body["messages"].([]any)
	content := messages[0].(map[string]any)["content"]
	assert.Equal(t, "summarize this", content, "synopsis calls carry no search context")
}

func TestAnthropicParse(t *testing.T) {
	a := NewAnthropicAdapter(testCfg("sk-ant-abc"))
	resp, err := a.Parse(jsonResponse(200, `{
		"content":[{"type":"text","text":"the answer"}],
		"stop_reason":"end_turn",
		"usage":{"input_tokens":120,"output_tokens":48}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "the answer", resp.Content)
	assert.Equal(t, "end_turn", resp.FinishReason)
	usage := resp.UsageMetadata["usage"].(map[string]any)
	assert.Equal(t, int64(120), usage["input_tokens"])
	assert.Equal(t, int64(48), usage["output_tokens"])
}

func TestAnthropicParseError(t *testing.T) {
	a := NewAnthropicAdapter(testCfg("sk-ant-abc"))
	_, err := a.Parse(jsonResponse(429, `{
		"error":{"type":"rate_limit_error","message":"slow down"}
	}`))

	var provErr *llmerrors.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, 429, provErr.StatusCode)
	assert.Equal(t, llmerrors.ErrorTypeRateLimit, provErr.Type)
	assert.Contains(t, provErr.Message, "slow down")
}

func TestOpenAIBuild(t *testing.T) {
	a := NewOpenAIAdapter(testCfg("sk-abc"))
	req, err := a.Build(context.Background(), &transport.Request{
		Operation: transport.OpGeneration,
		Model:     "gpt-4o",
		Prompt:    "what is Go",
		MaxTokens: 1024,
		Search: &domain.SearchResult{
			Success: true,
			Query:   "what is Go",
			Sources: []domain.SearchSource{{Title: "Go site", URL: "https://t.example", Domain: "t.example", Snippet: "Go is a language"}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-abc", req.Header.Get("Authorization"))
	assert.True(t, strings.HasSuffix(req.URL.Path, "/chat/completions"))

	body := decodeBody(t, req)
	messages := body["messages"].([]any)
	last := messages[len(messages)-1].(map[string]any)
	content := last["content"].(string)
	assert.Contains(t, content, "Go is a language", "search context inlines into the prompt")
	assert.Contains(t, content, "User question")
	assert.Contains(t, content, "what is Go")
}

func TestOpenAIParse(t *testing.T) {
	a := NewOpenAIAdapter(testCfg("sk-abc"))
	resp, err := a.Parse(jsonResponse(200, `{
		"choices":[{"message":{"content":"the answer"},"finish_reason":"stop"}],
		"usage":{"prompt_tokens":90,"completion_tokens":31,"total_tokens":121}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "the answer", resp.Content)
	usage := resp.UsageMetadata["usage"].(map[string]any)
	assert.Equal(t, int64(90), usage["prompt_tokens"])
	assert.Equal(t, int64(31), usage["completion_tokens"])
}

func TestOpenAIParseError(t *testing.T) {
	a := NewOpenAIAdapter(testCfg("sk-abc"))
	_, err := a.Parse(jsonResponse(401, `{
		"error":{"message":"bad key","type":"invalid_request_error","code":"invalid_api_key"}
	}`))

	var provErr *llmerrors.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, llmerrors.ErrorTypeCredential, provErr.Type)
}

func TestGoogleBuild(t *testing.T) {
	a := NewGoogleAdapter(testCfg("AIzaKey"))
	req, err := a.Build(context.Background(), &transport.Request{
		Operation: transport.OpGeneration,
		Model:     "gemini-2.0-flash",
		Prompt:    "what is Go",
		History: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: "hi"},
			{Role: domain.RoleAssistant, Content: "hello"},
		},
		MaxTokens:   1024,
		Temperature: 0,
	})
	require.NoError(t, err)

	assert.Contains(t, req.URL.Path, "models/gemini-2.0-flash:generateContent")
	assert.Equal(t, "AIzaKey", req.URL.Query().Get("key"))
	assert.Empty(t, req.Header.Get("Authorization"))

	body := decodeBody(t, req)
	contents := body["contents"].([]any)
	require.Len(t, contents, 3)
	assert.Equal(t, "model", contents[1].(map[string]any)["role"], "assistant turns map to model role")

	genCfg := body["generationConfig"].(map[string]any)
	assert.Equal(t, float64(1024), genCfg["maxOutputTokens"])
}

func TestGoogleParse(t *testing.T) {
	a := NewGoogleAdapter(testCfg("AIzaKey"))
	resp, err := a.Parse(jsonResponse(200, `{
		"candidates":[{"content":{"parts":[{"text":"the "},{"text":"answer"}]},"finishReason":"STOP"}],
		"usageMetadata":{"promptTokenCount":55,"candidatesTokenCount":17,"totalTokenCount":72}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "the answer", resp.Content, "multi-part candidates join")
	usage := resp.UsageMetadata["usage"].(map[string]any)
	assert.Equal(t, int64(55), usage["promptTokenCount"])
	assert.Equal(t, int64(17), usage["candidatesTokenCount"])
}

func TestGoogleParseError(t *testing.T) {
	a := NewGoogleAdapter(testCfg("AIzaKey"))
	_, err := a.Parse(jsonResponse(503, `{
		"error":{"message":"overloaded","status":"UNAVAILABLE"}
	}`))

	var provErr *llmerrors.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, 503, provErr.StatusCode)
	assert.True(t, provErr.IsRetryable())
}

func TestRouterPick(t *testing.T) {
	router, err := NewRouter(map[string]configuration.ProviderConfig{
		"anthropic": testCfg("sk-ant-abc"),
		"openai":    testCfg("sk-abc"),
	})
	require.NoError(t, err)

	a, err := router.Pick("anthropic")
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, a.Name())

	// aliases resolve through the router too
	a, err = router.Pick("claude")
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, a.Name())

	_, err = router.Pick("google")
	assert.ErrorIs(t, err, llmerrors.ErrUnknownProvider)
}
