package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumai/quorum/internal/domain"
)

func TestMemoryStoreSearchCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	s := NewMemoryStoreWithClock(clock)

	result := &domain.SearchResult{Success: true, Query: "go generics", Content: "answer"}

	_, ok, err := s.GetSearch(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetSearch(ctx, "k1", result, 15*time.Minute))

	got, ok, err := s.GetSearch(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, result, got)

	// still fresh one second before expiry
	now = now.Add(15*time.Minute - time.Second)
	_, ok, _ = s.GetSearch(ctx, "k1")
	assert.True(t, ok)

	// gone once the TTL elapses
	now = now.Add(2 * time.Second)
	_, ok, _ = s.GetSearch(ctx, "k1")
	assert.False(t, ok)
}

func TestMemoryStoreWindowCounters(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStoreWithClock(func() time.Time { return now })

	count, err := s.CountWindow(ctx, "user-1", time.Hour)
	require.NoError(t, err)
	assert.Zero(t, count)

	for i := int64(1); i <= 3; i++ {
		n, err := s.IncrWindow(ctx, "user-1", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	// other users do not share windows
	n, err := s.IncrWindow(ctx, "user-2", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// a new window starts fresh
	now = now.Add(2 * time.Hour)
	count, err = s.CountWindow(ctx, "user-1", time.Hour)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMemoryStoreConcurrentIncr(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	const n = 50
	done := make(chan struct{})
	for i := 0; i < n; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			_, _ = s.IncrWindow(ctx, "user-1", time.Hour)
		}()
	}
	for i := 0; i < n; i++ {
		<-done
	}

	count, err := s.CountWindow(ctx, "user-1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(n), count)
}
