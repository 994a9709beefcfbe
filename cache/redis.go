package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tahuri-backend/models"
)

const summaryKey = "tahuri:reports:summary"

var ErrMiss = errors.New("cache miss")

// StatsCache keeps the dashboard summary in Redis for a short TTL.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(addr, password string, ttl time.Duration) *StatsCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	return &StatsCache{client: client, ttl: ttl}
}

func (s *StatsCache) Ping(ctx context.Context) error {
	const op = "cache.StatsCache.Ping"

	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *StatsCache) Summary(ctx context.Context) (models.DashboardSummary, error) {
	const op = "cache.StatsCache.Summary"

	data, err := s.client.Get(ctx, summaryKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.DashboardSummary{}, fmt.Errorf("%s: %w", op, ErrMiss)
	}
	if err != nil {
		return models.DashboardSummary{}, fmt.Errorf("%s: %w", op, err)
	}

	var summary models.DashboardSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return models.DashboardSummary{}, fmt.Errorf("%s: %w", op, err)
	}

	return summary, nil
}

func (s *StatsCache) SaveSummary(ctx context.Context, summary models.DashboardSummary) error {
	const op = "cache.StatsCache.SaveSummary"

	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.client.Set(ctx, summaryKey, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Invalidate drops the cached summary after a mutation.
func (s *StatsCache) Invalidate(ctx context.Context) error {
	const op = "cache.StatsCache.Invalidate"

	if err := s.client.Del(ctx, summaryKey).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *StatsCache) Close() error {
	const op = "cache.StatsCache.Close"

	if err := s.client.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Disabled is used when REDIS_ADDR is unset: every read misses.
type Disabled struct{}

func (Disabled) Summary(context.Context) (models.DashboardSummary, error) {
	return models.DashboardSummary{}, ErrMiss
}

func (Disabled) SaveSummary(context.Context, models.DashboardSummary) error { return nil }

func (Disabled) Invalidate(context.Context) error { return nil }
