package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/quorumai/quorum/internal/domain"
	"github.com/quorumai/quorum/internal/llm/configuration"
	llmerrors "github.com/quorumai/quorum/internal/llm/errors"
	"github.com/quorumai/quorum/internal/store"
)

// Coordinator sits between the orchestrator and the search client. It
// answers from cache when it can, collapses concurrent identical searches
// into one backend call, and enforces the per-user quota. At most one
// logical search happens per query.
type Coordinator struct {
	client  Client
	store   store.Store
	config  configuration.CoordinatorConfig
	logger  *slog.Logger
	inproc  singleflight.Group
	now     func() time.Time
}

// NewCoordinator wires the coordinator.
func NewCoordinator(client Client, st store.Store, cfg configuration.CoordinatorConfig, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		client: client,
		store:  st,
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Coordinate resolves one search request. The flow is quota check, cache
// lookup, then a deduplicated backend call; only the user whose request
// initiated a real backend call is charged. Anonymous requests skip the
// quota entirely.
func (c *Coordinator) Coordinate(ctx context.Context, query string, loc *domain.Location, userID *string) (*domain.SearchResult, error) {
	if userID != nil {
		count, err := c.store.CountWindow(ctx, *userID, c.config.RateWindow)
		if err != nil {
			return nil, fmt.Errorf("failed to check search quota: %w", err)
		}
		if count >= c.config.SearchesPerWindow {
			return nil, &llmerrors.RateLimitError{
				UserID:    *userID,
				Limit:     c.config.SearchesPerWindow,
				WindowSec: int(c.config.RateWindow / time.Second),
			}
		}
	}

	key := c.cacheKey(query, loc)

	if cached, ok, err := c.store.GetSearch(ctx, key); err != nil {
		c.logger.WarnContext(ctx, "search cache read failed", slog.String("error", err.Error()))
	} else if ok {
		c.logger.DebugContext(ctx, "search cache hit", slog.String("key", key))
		hit := *cached
		hit.CallsMade = 0
		return &hit, nil
	}

	// The flight runs on a detached context so one caller's cancellation
	// cannot kill a search other callers are waiting on; the outer deadline
	// bounds it instead. Waiters race their own context below.
	ch := c.inproc.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.config.OuterTimeout)
		defer cancel()
		return c.execute(fctx, key, query, loc, userID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			// a failed search still reports how many backend calls it
			// burned, so the partial result travels with the error
			if partial, ok := res.Val.(*domain.SearchResult); ok && partial != nil {
				failed := *partial
				return &failed, res.Err
			}
			return nil, res.Err
		}
		// every waiter sees the same result, backend call count included;
		// the quota charge inside the flight happened exactly once
		result := *res.Val.(*domain.SearchResult)
		return &result, nil
	}
}

// execute performs the real backend call, caches success, and charges the
// initiating user.
func (c *Coordinator) execute(ctx context.Context, key, query string, loc *domain.Location, userID *string) (*domain.SearchResult, error) {
	result, err := c.client.Search(ctx, query, loc)
	if err != nil {
		return result, err
	}

	if err := c.store.SetSearch(ctx, key, result, c.config.CacheTTL); err != nil {
		c.logger.WarnContext(ctx, "search cache write failed", slog.String("error", err.Error()))
	}

	if userID != nil {
		if _, err := c.store.IncrWindow(ctx, *userID, c.config.RateWindow); err != nil {
			c.logger.WarnContext(ctx, "search quota charge failed", slog.String("error", err.Error()))
		}
	}

	return result, nil
}

// cacheKey hashes the normalized query, canonical location, and UTC date.
// Including the date bounds staleness to a day even if TTL handling
// misbehaves, and keeps date-sensitive answers from crossing midnight.
func (c *Coordinator) cacheKey(query string, loc *domain.Location) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(query))))
	h.Write([]byte{'|'})
	h.Write([]byte(loc.Canonical()))
	h.Write([]byte{'|'})
	h.Write([]byte(c.now().UTC().Format("2006-01-02")))
	return hex.EncodeToString(h.Sum(nil))
}
