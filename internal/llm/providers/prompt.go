package providers

import (
	"fmt"
	"strings"

	"github.com/quorumai/quorum/internal/domain"
)

// maxPromptSources caps how many search sources are injected into provider
// context; the full source list still reaches the caller.
const maxPromptSources = 6

// FormatSearchContext renders search results as a text block providers can
// consume inline. Returns "" when the result carries nothing usable.
func FormatSearchContext(sr *domain.SearchResult) string {
	if sr == nil || !sr.Success || len(sr.Sources) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Web search results for: %s\n", sr.Query)
	fmt.Fprintf(&b, "Found %d relevant sources\n", len(sr.Sources))
	if sr.RecencyFocused {
		b.WriteString("Search focused on recent/current information\n")
	}
	b.WriteString("\n--- Search Results ---\n")

	for i, src := range sr.Sources {
		if i >= maxPromptSources {
			break
		}
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, src.Title)
		fmt.Fprintf(&b, "   Source: %s\n", src.Domain)
		if src.PublishedDate != "" {
			fmt.Fprintf(&b, "   Published: %s\n", src.PublishedDate)
		}
		fmt.Fprintf(&b, "   Content: %s\n", src.Snippet)
	}

	b.WriteString("\n--- End Search Results ---\n")
	return b.String()
}

// EnhancePrompt combines the user question with inline search context. The
// original prompt is returned unchanged when there is no usable context.
func EnhancePrompt(prompt string, sr *domain.SearchResult) string {
	searchContext := FormatSearchContext(sr)
	if searchContext == "" {
		return prompt
	}

	var b strings.Builder
	b.WriteString("Current web information:\n\n")
	b.WriteString(searchContext)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", 50))
	b.WriteString("\n\nUser question:\n\n")
	b.WriteString(prompt)
	b.WriteString("\n\nPlease provide a comprehensive response using both the current web " +
		"information above and your knowledge. Cite sources when referencing specific " +
		"information from the web search results.")
	return b.String()
}

// historyMessages converts chat history into the role/content maps shared
// by the anthropic and openai message formats.
func historyMessages(history []domain.ChatMessage) []map[string]any {
	messages := make([]map[string]any, 0, len(history)+1)
	for _, msg := range history {
		role := msg.Role
		if role != "assistant" {
			role = "user"
		}
		messages = append(messages, map[string]any{
			"role":    role,
			"content": msg.Content,
		})
	}
	return messages
}
