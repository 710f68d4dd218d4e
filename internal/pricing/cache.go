package pricing

import (
	"context"
	"encoding/json"
	"time"

	"rental-api/pkg/config"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Cache keeps recent recommendations in redis so repeated lookups for the
// same property and window skip the external call. Cache failures only
// cost the shortcut, never the recommendation.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

// NewCache creates the recommendation cache, or nil when no redis address
// is configured.
func NewCache(cfg *config.RedisConfig, log *zap.Logger) *Cache {
	if cfg.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Cache{rdb: rdb, ttl: cfg.TTL, log: log}
}

// Get returns a cached result for the key, if present.
func (c *Cache) Get(ctx context.Context, key string) (*Result, bool) {
	raw, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("Pricing cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		c.log.Warn("Corrupt pricing cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &result, true
}

// Set stores a result under the key for the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, result *Result) {
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("Pricing cache write failed", zap.String("key", key), zap.Error(err))
	}
}
