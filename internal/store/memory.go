package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/quorumai/quorum/internal/domain"
)

type memoryEntry struct {
	result    *domain.SearchResult
	expiresAt time.Time
}

// MemoryStore is an in-process Store for single-node deployments and tests.
// Expired cache entries are dropped lazily on read.
type MemoryStore struct {
	mu       sync.Mutex
	searches map[string]memoryEntry
	counters map[string]int64

	now func() time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		searches: make(map[string]memoryEntry),
		counters: make(map[string]int64),
		now:      time.Now,
	}
}

// NewMemoryStoreWithClock creates a store with an injected clock.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	s := NewMemoryStore()
	s.now = now
	return s
}

func (s *MemoryStore) GetSearch(_ context.Context, key string) (*domain.SearchResult, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.searches[key]
	if !ok {
		return nil, false, nil
	}
	if s.now().After(entry.expiresAt) {
		delete(s.searches, key)
		return nil, false, nil
	}
	return entry.result, true, nil
}

func (s *MemoryStore) SetSearch(_ context.Context, key string, result *domain.SearchResult, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.searches[key] = memoryEntry{result: result, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) IncrWindow(_ context.Context, userID string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.counterKey(userID, window)
	s.counters[key]++
	return s.counters[key], nil
}

func (s *MemoryStore) CountWindow(_ context.Context, userID string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.counters[s.counterKey(userID, window)], nil
}

func (s *MemoryStore) Close() error { return nil }

// counterKey embeds the window bucket so old windows simply stop being
// read; stale buckets stay in the map for the process lifetime, which is
// acceptable for the single-node case this store serves.
func (s *MemoryStore) counterKey(userID string, window time.Duration) string {
	return fmt.Sprintf("%s:%d", userID, windowBucket(s.now(), window))
}
