package search

import (
	"strconv"
	"strings"
	"time"
)

// Recency cues. A query matching any of these gets the recency-focused
// search instruction so the backend prefers fresh sources.
var recencyKeywords = []string{
	"latest", "recent", "current", "today", "yesterday", "now",
	"news", "update", "updated", "announcement", "announced",
	"price", "stock", "score", "weather", "forecast",
	"release", "released", "launch", "launched",
}

var recencyPhrases = []string{
	"this week", "this month", "this year", "right now",
	"as of", "up to date", "breaking",
}

// DetectRecencyIntent reports whether the query asks about time-sensitive
// information. The current and previous calendar years count as recency
// markers so "best laptops 2026" stays fresh without a hardcoded year list.
func DetectRecencyIntent(query string, now time.Time) bool {
	q := strings.ToLower(query)

	for _, phrase := range recencyPhrases {
		if strings.Contains(q, phrase) {
			return true
		}
	}

	years := []string{
		strconv.Itoa(now.Year()),
		strconv.Itoa(now.Year() - 1),
	}
	for _, word := range strings.Fields(q) {
		word = strings.Trim(word, ".,!?;:()\"'")
		for _, kw := range recencyKeywords {
			if word == kw {
				return true
			}
		}
		for _, y := range years {
			if word == y {
				return true
			}
		}
	}
	return false
}
