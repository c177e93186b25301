// Package cache provides the Redis-backed confidence score cache. Score
// computation walks every applicable rule and status row, so dashboards that
// poll the score lean on this short-lived cache instead.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"saathi/internal/compliance/service"
	id "saathi/pkg/domain"
)

const (
	// Redis key prefix for cached confidence reports
	scoreKeyPrefix = "score:user:"

	// DefaultTTL bounds staleness between a write elsewhere in the cluster
	// and this instance's cached view. Writes on this instance invalidate
	// eagerly.
	DefaultTTL = 60 * time.Second
)

// RedisScoreCache implements service.ScoreCache on a shared Redis instance
// so horizontally scaled API instances see the same cached reports.
type RedisScoreCache struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisScoreCacheOption configures a RedisScoreCache.
type RedisScoreCacheOption func(*RedisScoreCache)

// WithTTL overrides the default entry lifetime.
func WithTTL(ttl time.Duration) RedisScoreCacheOption {
	return func(c *RedisScoreCache) { c.ttl = ttl }
}

// NewRedisScoreCache constructs a Redis-backed score cache.
func NewRedisScoreCache(client *redis.Client, opts ...RedisScoreCacheOption) *RedisScoreCache {
	cache := &RedisScoreCache{client: client, ttl: DefaultTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(cache)
		}
	}
	return cache
}

func (c *RedisScoreCache) Get(ctx context.Context, userID id.UserID) (service.Report, bool, error) {
	raw, err := c.client.Get(ctx, scoreKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return service.Report{}, false, nil
	}
	if err != nil {
		return service.Report{}, false, fmt.Errorf("read cached score: %w", err)
	}

	var report service.Report
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		// A corrupt entry is treated as a miss; the next Set overwrites it.
		return service.Report{}, false, nil
	}
	return report, true, nil
}

func (c *RedisScoreCache) Set(ctx context.Context, userID id.UserID, report service.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal score report: %w", err)
	}
	if err := c.client.Set(ctx, scoreKey(userID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("write cached score: %w", err)
	}
	return nil
}

func (c *RedisScoreCache) Invalidate(ctx context.Context, userID id.UserID) error {
	if err := c.client.Del(ctx, scoreKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate cached score: %w", err)
	}
	return nil
}

func scoreKey(userID id.UserID) string {
	return scoreKeyPrefix + userID.String()
}
