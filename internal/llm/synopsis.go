package llm

import (
	"fmt"
	"strings"
)

// Synopsis sizing. Providers are asked for 35-45 words; anything past the
// hard cap is truncated rather than re-requested.
const (
	synopsisMinWords = 35
	synopsisMaxWords = 45

	// MaxSynopsisWords is the hard truncation cap applied to whatever the
	// provider returns.
	MaxSynopsisWords = 60
)

// SynopsisFallback replaces the synopsis when the compression call fails;
// the answer itself is unaffected.
const SynopsisFallback = "Synopsis unavailable."

// SynopsisPrompt builds the compression instruction for a provider's own
// answer.
func SynopsisPrompt(content string) string {
	return fmt.Sprintf(
		"Summarize the following answer in %d-%d words. "+
			"Keep the key facts and conclusions, drop examples and hedging. "+
			"Respond with the summary only, no preamble.\n\n%s",
		synopsisMinWords, synopsisMaxWords, content)
}

// TruncateWords caps s at n whitespace-separated words.
func TruncateWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return s
	}
	return strings.Join(words[:n], " ")
}
