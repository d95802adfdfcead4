package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/profiteer-io/profiteer-api/config"
	"github.com/profiteer-io/profiteer-api/models"
	"github.com/profiteer-io/profiteer-api/utils"
)

// CacheService is the Redis-backed result cache for scrape results, keyed
// by (marketplace, normalized query, condition) with marketplace-specific
// TTLs. Redis being down degrades every lookup to a miss: the cache must
// never fail an analysis.
type CacheService struct {
	rdb *redis.Client
	cfg *config.Config
}

func NewCacheService(cfg *config.Config) (*CacheService, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return &CacheService{rdb: redis.NewClient(opt), cfg: cfg}, nil
}

// Ping verifies connectivity at startup.
func (c *CacheService) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Get returns the cached scrape result for the key, or nil on miss or any
// Redis/decode error.
func (c *CacheService) Get(ctx context.Context, marketplace, normalizedQuery, condition string) *models.ScrapeResult {
	key := cacheKey(marketplace, normalizedQuery, condition)

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[cache] ⚠️  GET %s failed: %v", key, err)
		}
		return nil
	}

	var result models.ScrapeResult
	if err := json.Unmarshal(data, &result); err != nil {
		log.Printf("[cache] ⚠️  corrupt entry %s: %v", key, err)
		return nil
	}
	return &result
}

// Set stores a scrape result under the marketplace's TTL. Failures are
// logged and swallowed.
func (c *CacheService) Set(ctx context.Context, marketplace, normalizedQuery, condition string, result *models.ScrapeResult) {
	key := cacheKey(marketplace, normalizedQuery, condition)

	data, err := json.Marshal(result)
	if err != nil {
		log.Printf("[cache] ⚠️  encode %s failed: %v", key, err)
		return
	}

	ttl := c.cfg.CacheTTL(marketplace)
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("[cache] ⚠️  SET %s failed: %v", key, err)
		return
	}
	log.Printf("[cache] SET %s (TTL %v)", key, ttl)
}

// Invalidate removes a single cache entry.
func (c *CacheService) Invalidate(ctx context.Context, marketplace, normalizedQuery, condition string) {
	key := cacheKey(marketplace, normalizedQuery, condition)
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		log.Printf("[cache] ⚠️  DEL %s failed: %v", key, err)
	}
}

func (c *CacheService) Close() error {
	return c.rdb.Close()
}

func cacheKey(marketplace, normalizedQuery, condition string) string {
	return "scraper:" + marketplace + ":" + utils.CacheToken(normalizedQuery) + ":" + condition
}
