// Package cache provides Redis-backed caches for read-path aggregations.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trellis-inc/trellis/internal/application/hierarchy/usecases"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

const (
	summaryKeyPrefix = "trellis:summary:"
	baseSummaryTTL   = 5 * time.Minute
	summaryTTLJitter = 2 * time.Minute // anti-stampede
)

// RedisSummaryCache implements the hierarchy SummaryCache on Redis. Cache
// errors degrade to misses; the aggregation recomputes from storage.
type RedisSummaryCache struct {
	client *redis.Client
	logger logger.Interface
}

// NewRedisSummaryCache creates a new Redis-based summary cache
func NewRedisSummaryCache(client *redis.Client, logger logger.Interface) *RedisSummaryCache {
	return &RedisSummaryCache{
		client: client,
		logger: logger,
	}
}

func (c *RedisSummaryCache) key(key string) string {
	return summaryKeyPrefix + key
}

// Get retrieves a cached summary, reporting a miss on any cache failure
func (c *RedisSummaryCache) Get(ctx context.Context, key string) (*usecases.PerformanceSummary, bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		c.logger.Warnw("summary cache read failed", "key", key, "error", err)
		return nil, false, nil
	}

	var summary usecases.PerformanceSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		c.logger.Warnw("summary cache entry corrupt, dropping", "key", key, "error", err)
		_ = c.client.Del(ctx, c.key(key)).Err()
		return nil, false, nil
	}

	return &summary, true, nil
}

// Set stores a summary with a jittered TTL
func (c *RedisSummaryCache) Set(ctx context.Context, key string, summary *usecases.PerformanceSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	ttl := baseSummaryTTL + time.Duration(rand.Int64N(int64(summaryTTLJitter)))
	if err := c.client.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache summary: %w", err)
	}
	return nil
}

// Invalidate removes a cached summary
func (c *RedisSummaryCache) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate summary: %w", err)
	}
	return nil
}
