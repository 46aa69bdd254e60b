package knowledge

import (
	"context"
	"fmt"

	"github.com/lk2023060901/rag-search-gateway/internal/pkg/logger"
	"github.com/lk2023060901/rag-search-gateway/internal/websearch/types"
	"go.uber.org/zap"
)

// TextSearcher is the substring-search backend behind the cache.
type TextSearcher interface {
	SearchText(ctx context.Context, collection, query string, limit int) ([]*types.SearchResult, error)
}

// Service answers knowledge-base queries. Semantic search is preferred; when
// the vector path is unavailable or fails, the service degrades to substring
// search over the document table. Only the text path is cached: semantic
// results always come fresh from the vector index.
type Service struct {
	retriever *Retriever
	docs      TextSearcher
	cache     *SearchCache
	threshold float32
	logger    *logger.Logger
}

// ServiceConfig configures the knowledge service.
type ServiceConfig struct {
	ScoreThreshold float32
}

// NewService creates a knowledge service. retriever and docs may each be nil;
// at least one search path must exist.
func NewService(retriever *Retriever, docs TextSearcher, cache *SearchCache, cfg *ServiceConfig, lgr *logger.Logger) (*Service, error) {
	if retriever == nil && docs == nil {
		return nil, fmt.Errorf("no search backend configured")
	}
	if cfg == nil {
		cfg = &ServiceConfig{}
	}

	log := lgr
	if log == nil {
		log = logger.L()
	}
	if cache == nil {
		cache = NewSearchCache(nil, nil, log)
	}

	return &Service{
		retriever: retriever,
		docs:      docs,
		cache:     cache,
		threshold: cfg.ScoreThreshold,
		logger:    log,
	}, nil
}

// Search returns knowledge-base results for a query. The bool reports whether
// the results came from the cache, which only ever holds text-search results.
func (s *Service) Search(ctx context.Context, collection, query string, limit int) ([]*types.SearchResult, bool, error) {
	if query == "" {
		return nil, false, fmt.Errorf("query is required")
	}
	if limit <= 0 {
		limit = 5
	}

	if s.retriever != nil {
		results, err := s.retriever.SemanticSearch(ctx, query, limit, s.threshold)
		if err == nil {
			return results, false, nil
		}

		s.logger.Warn("semantic search failed, falling back to text search",
			zap.String("collection", collection),
			zap.String("query", query),
			zap.Error(err))
	}

	return s.textSearch(ctx, collection, query, limit)
}

// SemanticSearch bypasses the text fallback.
func (s *Service) SemanticSearch(ctx context.Context, query string, limit int, scoreThreshold float32) ([]*types.SearchResult, error) {
	if s.retriever == nil {
		return nil, fmt.Errorf("semantic search is not configured")
	}
	return s.retriever.SemanticSearch(ctx, query, limit, scoreThreshold)
}

func (s *Service) textSearch(ctx context.Context, collection, query string, limit int) ([]*types.SearchResult, bool, error) {
	if s.docs == nil {
		return []*types.SearchResult{}, false, nil
	}

	if cached, ok := s.cache.Get(ctx, collection, query); ok {
		return cached, true, nil
	}

	results, err := s.docs.SearchText(ctx, collection, query, limit)
	if err != nil {
		return nil, false, err
	}

	s.cache.Put(ctx, collection, query, results)
	return results, false, nil
}
