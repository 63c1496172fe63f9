package usage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTokens(t *testing.T) {
	tests := []struct {
		name       string
		provider   string
		meta       map[string]any
		wantInput  int64
		wantOutput int64
	}{
		{
			name:     "anthropic native fields",
			provider: "anthropic",
			meta: map[string]any{
				"usage": map[string]any{"input_tokens": float64(120), "output_tokens": float64(48)},
			},
			wantInput:  120,
			wantOutput: 48,
		},
		{
			name:     "openai native fields",
			provider: "openai",
			meta: map[string]any{
				"usage": map[string]any{
					"prompt_tokens":     float64(90),
					"completion_tokens": float64(31),
					"total_tokens":      float64(121),
				},
			},
			wantInput:  90,
			wantOutput: 31,
		},
		{
			name:     "google camelCase fields",
			provider: "google",
			meta: map[string]any{
				"usage": map[string]any{"promptTokenCount": int64(55), "candidatesTokenCount": int64(17)},
			},
			wantInput:  55,
			wantOutput: 17,
		},
		{
			name:     "google snake_case fallback",
			provider: "google",
			meta: map[string]any{
				"usage": map[string]any{"prompt_token_count": float64(55), "candidates_token_count": float64(17)},
			},
			wantInput:  55,
			wantOutput: 17,
		},
		{
			name:     "claude alias resolves to anthropic schema",
			provider: "claude",
			meta: map[string]any{
				"usage": map[string]any{"input_tokens": int64(10), "output_tokens": int64(5)},
			},
			wantInput:  10,
			wantOutput: 5,
		},
		{
			name:     "wrong schema for provider yields zeros",
			provider: "anthropic",
			meta: map[string]any{
				"usage": map[string]any{"prompt_tokens": float64(90), "completion_tokens": float64(31)},
			},
		},
		{
			name:     "unknown provider yields zeros",
			provider: "mistral",
			meta: map[string]any{
				"usage": map[string]any{"input_tokens": float64(10), "output_tokens": float64(5)},
			},
		},
		{
			name:     "missing usage block",
			provider: "openai",
			meta:     map[string]any{"model": "gpt-4o"},
		},
		{
			name:     "nil metadata",
			provider: "openai",
		},
		{
			name:     "usage block wrong type",
			provider: "openai",
			meta:     map[string]any{"usage": "lots"},
		},
		{
			name:     "negative counts treated as absent",
			provider: "anthropic",
			meta: map[string]any{
				"usage": map[string]any{"input_tokens": float64(-3), "output_tokens": float64(-1)},
			},
		},
		{
			name:     "json.Number values",
			provider: "anthropic",
			meta: map[string]any{
				"usage": map[string]any{"input_tokens": json.Number("200"), "output_tokens": json.Number("77")},
			},
			wantInput:  200,
			wantOutput: 77,
		},
		{
			name:     "partial usage keeps the present side",
			provider: "openai",
			meta: map[string]any{
				"usage": map[string]any{"prompt_tokens": float64(42)},
			},
			wantInput: 42,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, out := ExtractTokens(tt.provider, tt.meta)
			assert.Equal(t, tt.wantInput, in)
			assert.Equal(t, tt.wantOutput, out)
		})
	}
}

func TestExtractTokensIdempotent(t *testing.T) {
	meta := map[string]any{
		"usage": map[string]any{"input_tokens": float64(120), "output_tokens": float64(48)},
	}
	in1, out1 := ExtractTokens("anthropic", meta)
	in2, out2 := ExtractTokens("anthropic", meta)
	require.Equal(t, in1, in2)
	require.Equal(t, out1, out2)
}

func TestCostMilliCents(t *testing.T) {
	tests := []struct {
		name   string
		model  string
		input  int64
		output int64
		want   int64
	}{
		{name: "known model", model: "gpt-4o", input: 1_000_000, output: 1_000_000, want: 1_250_000},
		{name: "family prefix fallback", model: "gemini-2.5-pro-exp", input: 1_000_000, output: 0, want: 10_000},
		{name: "unknown model costs zero", model: "llama-3", input: 1_000_000, output: 1_000_000, want: 0},
		{name: "zero tokens", model: "gpt-4o", want: 0},
		{name: "sub-million rounds down", model: "claude-sonnet-4-20250514", input: 100, output: 0, want: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CostMilliCents(tt.model, tt.input, tt.output))
		})
	}
}
