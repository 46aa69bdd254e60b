package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lk2023060901/rag-search-gateway/internal/pkg/logger"
	"github.com/lk2023060901/rag-search-gateway/internal/pkg/redis"
	"github.com/lk2023060901/rag-search-gateway/internal/websearch/types"
	"go.uber.org/zap"
)

// KV is the key-value store behind the search cache. Get returns
// redis.ErrNil on a miss.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// SearchCache caches knowledge search results per collection and query.
// Expiry is passive: entries carry a TTL and are never evicted explicitly.
// Every cache failure degrades to a miss or a skipped write.
type SearchCache struct {
	kv     KV
	ttl    time.Duration
	logger *logger.Logger
}

// SearchCacheConfig configures the search cache.
type SearchCacheConfig struct {
	TTL time.Duration
}

// NewSearchCache creates a search cache. A nil kv disables caching.
func NewSearchCache(kv KV, cfg *SearchCacheConfig, lgr *logger.Logger) *SearchCache {
	if cfg == nil {
		cfg = &SearchCacheConfig{}
	}
	if cfg.TTL == 0 {
		cfg.TTL = 300 * time.Second
	}

	log := lgr
	if log == nil {
		log = logger.L()
	}

	return &SearchCache{
		kv:     kv,
		ttl:    cfg.TTL,
		logger: log,
	}
}

// Get returns the cached results for a query, or (nil, false) on a miss.
func (c *SearchCache) Get(ctx context.Context, collection, query string) ([]*types.SearchResult, bool) {
	if c.kv == nil {
		return nil, false
	}

	key := c.key(collection, query)
	data, err := c.kv.Get(ctx, key)
	if err != nil {
		if !redis.IsNil(err) {
			c.logger.Warn("search cache read failed",
				zap.String("cache_key", key),
				zap.Error(err))
		}
		return nil, false
	}

	var results []*types.SearchResult
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		c.logger.Warn("search cache entry corrupt",
			zap.String("cache_key", key),
			zap.Error(err))
		return nil, false
	}

	c.logger.Debug("search cache hit", zap.String("cache_key", key))
	return results, true
}

// Put stores results for a query with the configured TTL.
func (c *SearchCache) Put(ctx context.Context, collection, query string, results []*types.SearchResult) {
	if c.kv == nil {
		return
	}

	data, err := json.Marshal(results)
	if err != nil {
		c.logger.Warn("failed to marshal search results for cache", zap.Error(err))
		return
	}

	key := c.key(collection, query)
	if err := c.kv.Set(ctx, key, string(data), c.ttl); err != nil {
		c.logger.Warn("search cache write failed",
			zap.String("cache_key", key),
			zap.Error(err))
	}
}

// TTL returns the configured entry lifetime.
func (c *SearchCache) TTL() time.Duration {
	return c.ttl
}

func (c *SearchCache) key(collection, query string) string {
	return fmt.Sprintf("search:%s:%s", collection, query)
}
