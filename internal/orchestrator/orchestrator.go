// Package orchestrator runs one query across multiple AI providers
// concurrently and aggregates the answers. Provider failures are isolated
// per slot, the optional web-search pass is advisory, and persistence is
// handed to a non-blocking recorder.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quorumai/quorum/internal/domain"
	"github.com/quorumai/quorum/internal/llm"
	llmerrors "github.com/quorumai/quorum/internal/llm/errors"
	"github.com/quorumai/quorum/internal/llm/providers"
	"github.com/quorumai/quorum/internal/llm/usage"
	"github.com/quorumai/quorum/internal/search"
)

// SearchCoordinator is the orchestrator's view of the search layer.
type SearchCoordinator interface {
	Coordinate(ctx context.Context, query string, loc *domain.Location, userID *string) (*domain.SearchResult, error)
}

// Orchestrator fans one query out to the requested providers.
type Orchestrator struct {
	client     llm.Client
	search     SearchCoordinator
	recorder   Recorder
	logger     *slog.Logger
	configured []string
	now        func() time.Time
}

// New wires an orchestrator. configured lists the providers with
// credentials, in the stable output order; search may be nil when no
// search backend is configured.
func New(client llm.Client, searchCoord SearchCoordinator, recorder Recorder, configured []string, logger *slog.Logger) *Orchestrator {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Orchestrator{
		client:     client,
		search:     searchCoord,
		recorder:   recorder,
		logger:     logger,
		configured: configured,
		now:        time.Now,
	}
}

// Run executes one query end to end: resolve providers, run the optional
// search pass, fan out generation, and aggregate. The error return covers
// only whole-query failures; per-provider errors land inside the response.
func (o *Orchestrator) Run(ctx context.Context, query domain.Query) (*domain.Response, error) {
	if query.ID == "" {
		query.ID = uuid.New().String()
	}
	if query.ReceivedAt.IsZero() {
		query.ReceivedAt = o.now().UTC()
	}

	targets := o.resolveProviders(query.Services)
	if len(targets) == 0 {
		return nil, fmt.Errorf("no known providers in services %v", query.Services)
	}

	log := o.logger.With(slog.String("query_id", query.ID))
	log.InfoContext(ctx, "query accepted",
		slog.Int("providers", len(targets)),
		slog.Bool("web_search", query.UseWebSearch))

	o.recorder.RecordQueryStart(ctx, domain.QueryRecord{
		QueryID:        query.ID,
		ConversationID: query.ConversationID,
		Message:        query.Message,
		Services:       targets,
		UseWebSearch:   query.UseWebSearch,
		StartedAt:      query.ReceivedAt,
	})

	resp := &domain.Response{
		QueryID:          query.ID,
		WebSearchEnabled: query.UseWebSearch,
		WebSearchSources: []domain.SearchSource{},
	}

	// Search happens once, before fan-out, and its failure never fails the
	// query: providers simply answer without web context.
	var searchResult *domain.SearchResult
	if query.UseWebSearch {
		searchResult = o.runSearch(ctx, log, &query, resp)
	}

	resp.Results = o.fanOut(ctx, log, &query, targets, searchResult)
	resp.Timestamp = o.now().UTC()

	log.InfoContext(ctx, "query aggregated",
		slog.Int("results", len(resp.Results)),
		slog.Int("succeeded", countSuccesses(resp.Results)))
	return resp, nil
}

// resolveProviders canonicalizes the requested services, dropping unknown
// names and duplicates while preserving request order. An empty request
// means every configured provider.
func (o *Orchestrator) resolveProviders(services []string) []string {
	if len(services) == 0 {
		return o.configured
	}
	seen := make(map[string]struct{}, len(services))
	targets := make([]string, 0, len(services))
	for _, s := range services {
		name := providers.CanonicalName(s)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		targets = append(targets, name)
	}
	return targets
}

func (o *Orchestrator) runSearch(ctx context.Context, log *slog.Logger, query *domain.Query, resp *domain.Response) *domain.SearchResult {
	if o.search == nil {
		resp.SearchError = llmerrors.ErrSearchUnavailable.Error()
		return nil
	}

	result, err := o.search.Coordinate(ctx, query.Message, query.Location, query.UserID)
	if err != nil {
		log.WarnContext(ctx, "web search failed, continuing without context",
			slog.String("error", err.Error()))
		resp.SearchError = err.Error()
		if result != nil {
			resp.SearchCallsMade = result.CallsMade
		}
		return nil
	}

	resp.SearchCallsMade = result.CallsMade
	if result.Sources != nil {
		resp.WebSearchSources = result.Sources
	}
	return result
}

// fanOut runs one goroutine per provider. Each goroutine owns exactly one
// result slot, so aggregation needs no locking, only the WaitGroup's
// happens-before edge.
func (o *Orchestrator) fanOut(ctx context.Context, log *slog.Logger, query *domain.Query, targets []string, searchResult *domain.SearchResult) []domain.ProviderResult {
	results := make([]domain.ProviderResult, len(targets))

	var wg sync.WaitGroup
	for i, provider := range targets {
		wg.Add(1)
		go func(slot int, provider string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.ErrorContext(ctx, "provider task panicked",
						slog.String("provider", provider),
						slog.String("panic", fmt.Sprint(r)),
						slog.String("stack", string(debug.Stack())))
					results[slot] = domain.ProviderResult{
						Provider: provider,
						Err:      fmt.Sprintf("internal error: %v", r),
					}
				}
			}()
			results[slot] = o.callProvider(ctx, log, query, provider, searchResult)
		}(i, provider)
	}
	wg.Wait()

	return results
}

// callProvider produces one slot's result: the main generation call, its
// usage record, and the synopsis sub-call. Generation is single-shot, so a
// failure leaves the token fields zero. A failed synopsis degrades to a
// placeholder rather than discarding a good answer.
func (o *Orchestrator) callProvider(ctx context.Context, log *slog.Logger, query *domain.Query, provider string, searchResult *domain.SearchResult) domain.ProviderResult {
	gen, err := o.client.Generate(ctx, llm.GenerateRequest{
		Provider: provider,
		Prompt:   query.Message,
		History:  query.History,
		Search:   searchResult,
		TraceID:  query.ID,
	})
	if err != nil {
		log.WarnContext(ctx, "provider generation failed",
			slog.String("provider", provider),
			slog.String("error_type", string(llmerrors.Classify(err))),
			slog.String("error", err.Error()))
		return domain.ProviderResult{Provider: provider, Err: err.Error()}
	}

	o.recorder.RecordUsage(ctx, domain.UsageRecord{
		QueryID:        query.ID,
		Provider:       provider,
		Model:          gen.Model,
		Label:          domain.UsageLabelAnswer,
		InputTokens:    gen.InputTokens,
		OutputTokens:   gen.OutputTokens,
		CostMilliCents: usage.CostMilliCents(gen.Model, gen.InputTokens, gen.OutputTokens),
		RecordedAt:     o.now().UTC(),
	})

	result := domain.ProviderResult{
		Provider:     provider,
		Success:      true,
		Content:      gen.Content,
		InputTokens:  gen.InputTokens,
		OutputTokens: gen.OutputTokens,
	}
	result.Synopsis = o.makeSynopsis(ctx, log, query, provider, gen.Content)
	return result
}

func (o *Orchestrator) makeSynopsis(ctx context.Context, log *slog.Logger, query *domain.Query, provider, content string) string {
	syn, err := o.client.Summarize(ctx, provider, content, query.ID)
	if err != nil {
		log.WarnContext(ctx, "synopsis failed, using placeholder",
			slog.String("provider", provider),
			slog.String("error", err.Error()))
		return llm.SynopsisFallback
	}

	o.recorder.RecordUsage(ctx, domain.UsageRecord{
		QueryID:        query.ID,
		Provider:       provider,
		Model:          syn.Model,
		Label:          domain.UsageLabelSynopsis,
		InputTokens:    syn.InputTokens,
		OutputTokens:   syn.OutputTokens,
		CostMilliCents: usage.CostMilliCents(syn.Model, syn.InputTokens, syn.OutputTokens),
		RecordedAt:     o.now().UTC(),
	})
	return syn.Synopsis
}

func countSuccesses(results []domain.ProviderResult) int {
	n := 0
	for _, r := range results {
		if r.Success {
			n++
		}
	}
	return n
}

var _ SearchCoordinator = (*search.Coordinator)(nil)
