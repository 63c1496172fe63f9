package domain

import "time"

// RecentSourceWindow is how far back a source's publish date may lie while
// still counting as recent.
const RecentSourceWindow = 30 * 24 * time.Hour

// recentSourceRatio is the fraction of dated sources that must fall inside
// RecentSourceWindow for a result to count as having recent content.
const recentSourceRatio = 0.4

// SearchSource is one citation extracted from the search backend's answer,
// deduplicated by URL and ordered by appearance.
type SearchSource struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Domain        string `json:"domain"`
	Snippet       string `json:"snippet"`
	PublishedDate string `json:"published_date,omitempty"`
}

// SearchResult is the outcome of one logical web search. It is produced at
// most once per Query and shared read-only across all provider tasks.
type SearchResult struct {
	Success          bool           `json:"success"`
	Query            string         `json:"query"`
	Sources          []SearchSource `json:"sources"`
	Content          string         `json:"content"`
	CallsMade        int            `json:"calls_made"`
	RecencyFocused   bool           `json:"recency_focused"`
	HasRecentContent bool           `json:"has_recent_content"`
	Err              string         `json:"error,omitempty"`
	Timestamp        time.Time      `json:"timestamp"`
}

// FailedSearch builds the failure variant shared by every error path.
func FailedSearch(query, errMsg string, callsMade int) *SearchResult {
	return &SearchResult{
		Query:     query,
		CallsMade: callsMade,
		Err:       errMsg,
		Timestamp: time.Now().UTC(),
	}
}

// AssessRecentContent reports whether at least 40% of the sources carry a
// publish date inside the recent window. Sources without a parseable date
// count against the ratio.
func AssessRecentContent(sources []SearchSource, now time.Time) bool {
	if len(sources) == 0 {
		return false
	}
	threshold := now.Add(-RecentSourceWindow)
	recent := 0
	for _, s := range sources {
		if s.PublishedDate == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", s.PublishedDate)
		if err != nil {
			if t, err = time.Parse(time.RFC3339, s.PublishedDate); err != nil {
				continue
			}
		}
		if !t.Before(threshold) {
			recent++
		}
	}
	return float64(recent)/float64(len(sources)) >= recentSourceRatio
}
