// Package usage normalizes the three incompatible provider usage schemas
// into input/output token counts and converts them to cost. Extraction is
// pure: the same metadata always yields the same counts, and unrecognized
// shapes yield zeros rather than errors.
package usage

import (
	"encoding/json"

	"github.com/quorumai/quorum/internal/llm/providers"
)

// Per-provider usage field names. Each provider reports token counts under
// its own schema; the extractor understands all three plus google's
// snake_case variant seen on some API versions.
var usageFields = map[string][][2]string{
	providers.ProviderAnthropic: {{"input_tokens", "output_tokens"}},
	providers.ProviderOpenAI:    {{"prompt_tokens", "completion_tokens"}},
	providers.ProviderGoogle: {
		{"promptTokenCount", "candidatesTokenCount"},
		{"prompt_token_count", "candidates_token_count"},
	},
}

// ExtractTokens pulls normalized (input, output) token counts from a
// provider's native usage metadata. Unknown providers, missing usage blocks,
// and malformed values all return (0, 0).
func ExtractTokens(provider string, meta map[string]any) (input, output int64) {
	fields, ok := usageFields[providers.CanonicalName(provider)]
	if !ok || meta == nil {
		return 0, 0
	}

	block, ok := meta["usage"].(map[string]any)
	if !ok {
		return 0, 0
	}

	for _, pair := range fields {
		in, inOK := asInt64(block[pair[0]])
		out, outOK := asInt64(block[pair[1]])
		if inOK || outOK {
			return in, out
		}
	}
	return 0, 0
}

// asInt64 coerces the numeric types that survive JSON decoding. Negative
// counts are treated as absent.
func asInt64(v any) (int64, bool) {
	var n int64
	switch x := v.(type) {
	case int64:
		n = x
	case int:
		n = int64(x)
	case float64:
		n = int64(x)
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return 0, false
		}
		n = i
	default:
		return 0, false
	}
	if n < 0 {
		return 0, false
	}
	return n, true
}
