package knowledge

import (
	"context"
	"fmt"

	"github.com/lk2023060901/rag-search-gateway/internal/knowledge/embedding"
	"github.com/lk2023060901/rag-search-gateway/internal/knowledge/storage"
	"github.com/lk2023060901/rag-search-gateway/internal/pkg/logger"
	"github.com/lk2023060901/rag-search-gateway/internal/websearch/types"
	"go.uber.org/zap"
)

// Retriever answers semantic queries against the knowledge base. Chunks of the
// same document are collapsed to the highest-scoring one.
type Retriever struct {
	embedder   embedding.Embedder
	store      storage.VectorStore
	collection string
	logger     *logger.Logger
}

// RetrieverConfig configures the retriever.
type RetrieverConfig struct {
	Collection string
}

// NewRetriever creates a knowledge-base retriever.
func NewRetriever(embedder embedding.Embedder, store storage.VectorStore, cfg *RetrieverConfig, lgr *logger.Logger) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if store == nil {
		return nil, fmt.Errorf("vector store is required")
	}
	if cfg == nil || cfg.Collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}

	log := lgr
	if log == nil {
		log = logger.L()
	}

	return &Retriever{
		embedder:   embedder,
		store:      store,
		collection: cfg.Collection,
		logger:     log,
	}, nil
}

// Collection returns the collection the retriever searches.
func (r *Retriever) Collection() string {
	return r.collection
}

// SemanticSearch embeds the query and returns up to limit results, one per
// document, above scoreThreshold. The store is over-fetched so the
// per-document dedup still fills the limit.
func (r *Retriever) SemanticSearch(ctx context.Context, query string, limit int, scoreThreshold float32) ([]*types.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if limit <= 0 {
		limit = 5
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := r.store.Search(ctx, &storage.SearchVectorRequest{
		CollectionName: r.collection,
		Vector:         vector,
		TopK:           limit * 2,
		MinScore:       scoreThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search vectors: %w", err)
	}

	// hits arrive ordered by score; keep the first (best) chunk per document
	seenDocs := make(map[string]bool)
	results := make([]*types.SearchResult, 0, limit)

	for _, hit := range hits {
		if seenDocs[hit.DocumentID] {
			continue
		}
		seenDocs[hit.DocumentID] = true

		results = append(results, &types.SearchResult{
			Title:   hit.Title,
			Snippet: hit.Content,
			Source:  types.SourceKnowledgeBase,
			Rank:    len(results),
			Score:   types.ScoreOf(float64(hit.Score)),
			Type:    types.TypeDocument,
		})

		if len(results) >= limit {
			break
		}
	}

	r.logger.Debug("semantic search finished",
		zap.String("collection", r.collection),
		zap.String("query", query),
		zap.Int("hits", len(hits)),
		zap.Int("results", len(results)))

	return results, nil
}
