// Package cache provides the optional Redis layer in front of the
// materialized region-statistics view. Every operation tolerates a nil
// client so the application degrades to direct database reads when no
// Redis address is configured.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/geofoncier/api/internal/config"
	"github.com/geofoncier/api/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	regionStatsKey = "geofoncier:region_stats"

	// Stats are refreshed explicitly via the cache-refresh maintenance
	// operation; the TTL only bounds staleness if that never runs.
	regionStatsTTL = 1 * time.Hour
)

// Cache wraps a Redis client for region-statistics caching.
type Cache struct {
	client *redis.Client
}

// New opens a Redis client from configuration. An empty address returns
// a disabled cache rather than an error.
func New(cfg config.RedisConfig) *Cache {
	if cfg.Addr == "" {
		return &Cache{}
	}
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

// Enabled reports whether a Redis backend is configured.
func (c *Cache) Enabled() bool {
	return c.client != nil
}

// GetRegionStats returns the cached region statistics, or (nil, nil) on
// a miss or when the cache is disabled. Redis errors are returned so the
// caller can log and fall through to the database.
func (c *Cache) GetRegionStats(ctx context.Context) ([]models.RegionStats, error) {
	if c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, regionStatsKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read region stats from cache: %w", err)
	}

	var stats []models.RegionStats
	if err := json.Unmarshal(data, &stats); err != nil {
		// A corrupt entry behaves like a miss; it will be overwritten.
		return nil, nil
	}
	return stats, nil
}

// SetRegionStats stores region statistics under the stats key.
func (c *Cache) SetRegionStats(ctx context.Context, stats []models.RegionStats) error {
	if c.client == nil {
		return nil
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal region stats: %w", err)
	}

	if err := c.client.Set(ctx, regionStatsKey, data, regionStatsTTL).Err(); err != nil {
		return fmt.Errorf("failed to write region stats to cache: %w", err)
	}
	return nil
}

// InvalidateRegionStats drops the cached statistics. Idempotent: deleting
// an absent key is not an error.
func (c *Cache) InvalidateRegionStats(ctx context.Context) error {
	if c.client == nil {
		return nil
	}

	if err := c.client.Del(ctx, regionStatsKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate region stats: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (c *Cache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
