package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quorumai/quorum/internal/domain"
)

const (
	searchKeyPrefix = "quorum:search:"
	rateKeyPrefix   = "quorum:ratelimit:"
)

// RedisStore backs the coordinator with Redis so cache hits and rate
// windows are shared across instances.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// RedisOptions carries connection settings for NewRedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

func (s *RedisStore) GetSearch(ctx context.Context, key string) (*domain.SearchResult, bool, error) {
	data, err := s.client.Get(ctx, searchKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read search cache: %w", err)
	}

	var result domain.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		// drop a corrupt entry rather than poisoning every hit
		_ = s.client.Del(ctx, searchKeyPrefix+key).Err()
		return nil, false, nil
	}
	return &result, true, nil
}

func (s *RedisStore) SetSearch(ctx context.Context, key string, result *domain.SearchResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal search result: %w", err)
	}
	if err := s.client.Set(ctx, searchKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write search cache: %w", err)
	}
	return nil
}

func (s *RedisStore) IncrWindow(ctx context.Context, userID string, window time.Duration) (int64, error) {
	key := s.rateKey(userID, window)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to increment rate window: %w", err)
	}
	return incr.Val(), nil
}

func (s *RedisStore) CountWindow(ctx context.Context, userID string, window time.Duration) (int64, error) {
	count, err := s.client.Get(ctx, s.rateKey(userID, window)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read rate window: %w", err)
	}
	return count, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) rateKey(userID string, window time.Duration) string {
	return fmt.Sprintf("%s%s:%d", rateKeyPrefix, userID, windowBucket(time.Now(), window))
}
