// Package search performs the optional web-search pass: a research-capable
// chat backend answers the query with citations, which are parsed into
// sources. The coordinator on top adds caching, in-flight deduplication,
// and per-user rate limiting; this client only knows how to make one
// logical search, retries included.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/quorumai/quorum/internal/domain"
	"github.com/quorumai/quorum/internal/llm/configuration"
	llmerrors "github.com/quorumai/quorum/internal/llm/errors"
)

// Client performs one logical web search.
type Client interface {
	Search(ctx context.Context, query string, loc *domain.Location) (*domain.SearchResult, error)
}

type client struct {
	config     configuration.SearchConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	now        func() time.Time
}

// NewClient creates a search client. The limiter guards the outbound
// backend regardless of how many queries fan in.
func NewClient(cfg configuration.SearchConfig, logger *slog.Logger) Client {
	return &client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.CallsPerSecond), cfg.Burst),
		logger:     logger,
		now:        time.Now,
	}
}

// Search runs the query against the backend with retries. Transient
// failures retry with linear backoff; if every attempt with a location hint
// fails, one final attempt goes out with the location stripped, since bad
// location payloads are a known failure mode. The returned result's
// CallsMade counts every HTTP attempt for quota accounting.
func (c *client) Search(ctx context.Context, query string, loc *domain.Location) (*domain.SearchResult, error) {
	if c.config.APIKey == "" {
		return nil, llmerrors.ErrSearchUnavailable
	}

	// an invalid country code drops the whole hint rather than failing
	if loc != nil && loc.Country != "" && !loc.HasValidCountry() {
		c.logger.WarnContext(ctx, "dropping location with invalid country code",
			slog.String("country", loc.Country))
		loc = nil
	}
	if loc.IsZero() {
		loc = nil
	}

	calls := 0
	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * c.config.RetryBackoff):
			}
		}

		result, err := c.attempt(ctx, query, loc)
		calls++
		if err == nil {
			result.CallsMade = calls
			return result, nil
		}
		lastErr = err
		if !llmerrors.IsRetryable(err) {
			break
		}
		c.logger.WarnContext(ctx, "search attempt failed",
			slog.Int("attempt", attempt+1), slog.String("error", err.Error()))
	}

	if loc != nil {
		c.logger.WarnContext(ctx, "retrying search without location hint")
		result, err := c.attempt(ctx, query, nil)
		calls++
		if err == nil {
			result.CallsMade = calls
			return result, nil
		}
		lastErr = err
	}

	return domain.FailedSearch(query, lastErr.Error(), calls), lastErr
}

func (c *client) attempt(ctx context.Context, query string, loc *domain.Location) (*domain.SearchResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	now := c.now().UTC()
	recencyFocused := DetectRecencyIntent(query, now)

	httpReq, err := c.buildRequest(ctx, query, loc, recencyFocused, now)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, &llmerrors.ProviderError{
			Provider:   "search",
			StatusCode: httpResp.StatusCode,
			Message:    string(body),
			Type:       llmerrors.ClassifyStatus(httpResp.StatusCode, ""),
		}
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &llmerrors.ParseError{Provider: "search", Reason: err.Error()}
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, llmerrors.ErrEmptyContent
	}

	content := resp.Choices[0].Message.Content
	sources := ExtractSources(content, c.config.MaxSources)

	return &domain.SearchResult{
		Success:          true,
		Query:            query,
		Sources:          sources,
		Content:          content,
		RecencyFocused:   recencyFocused,
		HasRecentContent: domain.AssessRecentContent(sources, now),
		Timestamp:        now,
	}, nil
}

// buildRequest shapes the OpenAI-compatible research request. The location
// hint travels as an approximate user location; the recency instruction is
// appended to the query itself.
func (c *client) buildRequest(ctx context.Context, query string, loc *domain.Location, recencyFocused bool, now time.Time) (*http.Request, error) {
	prompt := query
	if recencyFocused {
		prompt += fmt.Sprintf("\n\nPrioritize the most recent information available. Today's date is %s.",
			now.Format("2006-01-02"))
	}
	prompt += "\n\nCite your sources as markdown links."

	webSearch := map[string]any{"max_uses": 4}
	if loc != nil {
		approx := map[string]any{}
		if loc.City != "" {
			approx["city"] = loc.City
		}
		if loc.Region != "" {
			approx["region"] = loc.Region
		}
		if loc.Country != "" {
			approx["country"] = strings.ToUpper(loc.Country)
		}
		webSearch["user_location"] = map[string]any{"approximate": approx}
	}

	body := map[string]any{
		"model": c.config.Model,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
		"research": map[string]any{"web_search": webSearch},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.Endpoint+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	return httpReq, nil
}
