package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lk2023060901/rag-search-gateway/internal/pkg/logger"
	"github.com/lk2023060901/rag-search-gateway/internal/pkg/redis"
	"go.uber.org/zap"
)

// CacheEmbedder decorates an Embedder with a Redis cache keyed by model and
// text hash. Cache failures are logged and degrade to computing the embedding.
type CacheEmbedder struct {
	embedder Embedder
	cache    *redis.Client
	ttl      time.Duration
	prefix   string
	logger   *logger.Logger
}

// CacheEmbedderConfig configures the cache decorator.
type CacheEmbedderConfig struct {
	TTL    time.Duration
	Prefix string
}

// NewCacheEmbedder creates a caching Embedder.
func NewCacheEmbedder(embedder Embedder, cache *redis.Client, cfg *CacheEmbedderConfig, lgr *logger.Logger) *CacheEmbedder {
	if cfg == nil {
		cfg = &CacheEmbedderConfig{}
	}
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "kb:embedding:"
	}

	log := lgr
	if log == nil {
		log = logger.L()
	}

	return &CacheEmbedder{
		embedder: embedder,
		cache:    cache,
		ttl:      cfg.TTL,
		prefix:   cfg.Prefix,
		logger:   log,
	}
}

// Embed generates a vector for a single text, consulting the cache first.
func (e *CacheEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	cacheKey := e.cacheKey(text)

	if e.cache != nil {
		if cached, err := e.getFromCache(ctx, cacheKey); err == nil {
			e.logger.Debug("embedding cache hit", zap.String("cache_key", cacheKey))
			return cached, nil
		}
	}

	embedding, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.setToCache(ctx, cacheKey, embedding); err != nil {
			e.logger.Warn("failed to cache embedding",
				zap.String("cache_key", cacheKey),
				zap.Error(err))
		}
	}

	return embedding, nil
}

// BatchEmbed generates vectors for a batch of texts, filling cache misses
// with one underlying call.
func (e *CacheEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	missingIndices := make([]int, 0)
	missingTexts := make([]string, 0)

	if e.cache != nil {
		for i, text := range texts {
			if cached, err := e.getFromCache(ctx, e.cacheKey(text)); err == nil {
				results[i] = cached
			} else {
				missingIndices = append(missingIndices, i)
				missingTexts = append(missingTexts, text)
			}
		}
	} else {
		missingIndices = make([]int, len(texts))
		missingTexts = texts
		for i := range texts {
			missingIndices[i] = i
		}
	}

	if len(missingTexts) == 0 {
		return results, nil
	}

	embeddings, err := e.embedder.BatchEmbed(ctx, missingTexts)
	if err != nil {
		return nil, err
	}

	for i, embedding := range embeddings {
		results[missingIndices[i]] = embedding

		if e.cache != nil {
			cacheKey := e.cacheKey(missingTexts[i])
			if err := e.setToCache(ctx, cacheKey, embedding); err != nil {
				e.logger.Warn("failed to cache embedding",
					zap.String("cache_key", cacheKey),
					zap.Error(err))
			}
		}
	}

	return results, nil
}

// Dimension returns the vector dimension.
func (e *CacheEmbedder) Dimension() int {
	return e.embedder.Dimension()
}

// Model returns the model name.
func (e *CacheEmbedder) Model() string {
	return e.embedder.Model()
}

func (e *CacheEmbedder) cacheKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s%s:%s", e.prefix, e.Model(), hex.EncodeToString(hash[:]))
}

func (e *CacheEmbedder) getFromCache(ctx context.Context, key string) ([]float32, error) {
	data, err := e.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var embedding []float32
	if err := json.Unmarshal([]byte(data), &embedding); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached embedding: %w", err)
	}

	return embedding, nil
}

func (e *CacheEmbedder) setToCache(ctx context.Context, key string, embedding []float32) error {
	data, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}

	return e.cache.Set(ctx, key, string(data), e.ttl)
}
