package knowledge

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lk2023060901/rag-search-gateway/internal/knowledge/chunker"
	"github.com/lk2023060901/rag-search-gateway/internal/knowledge/embedding"
	"github.com/lk2023060901/rag-search-gateway/internal/knowledge/storage"
	"github.com/lk2023060901/rag-search-gateway/internal/pkg/logger"
	"go.uber.org/zap"
)

// Indexer chunks, embeds and stores documents into the knowledge base.
type Indexer struct {
	chunker    chunker.Chunker
	embedder   embedding.Embedder
	store      storage.VectorStore
	collection string
	logger     *logger.Logger
}

// NewIndexer creates a document indexer.
func NewIndexer(ck chunker.Chunker, embedder embedding.Embedder, store storage.VectorStore, collection string, lgr *logger.Logger) (*Indexer, error) {
	if ck == nil {
		return nil, fmt.Errorf("chunker is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if store == nil {
		return nil, fmt.Errorf("vector store is required")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}

	log := lgr
	if log == nil {
		log = logger.L()
	}

	return &Indexer{
		chunker:    ck,
		embedder:   embedder,
		store:      store,
		collection: collection,
		logger:     log,
	}, nil
}

// IndexDocument chunks and embeds content, then writes the vectors. Returns
// the number of chunks stored.
func (ix *Indexer) IndexDocument(ctx context.Context, documentID, title, content string) (int, error) {
	if documentID == "" {
		documentID = uuid.NewString()
	}
	if content == "" {
		return 0, fmt.Errorf("content is required")
	}

	if err := ix.store.EnsureCollection(ctx, ix.collection, ix.embedder.Dimension()); err != nil {
		return 0, fmt.Errorf("failed to ensure collection: %w", err)
	}

	chunks, err := ix.chunker.Chunk(ctx, content)
	if err != nil {
		return 0, fmt.Errorf("failed to chunk document: %w", err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	embeddings, err := ix.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: got %d, want %d", len(embeddings), len(chunks))
	}

	vectors := make([]*storage.ChunkVector, len(chunks))
	for i, chunk := range chunks {
		vectors[i] = &storage.ChunkVector{
			ID:         uuid.NewString(),
			DocumentID: documentID,
			Title:      title,
			Content:    chunk.Content,
			Embedding:  embeddings[i],
		}
	}

	if err := ix.store.InsertChunks(ctx, ix.collection, vectors); err != nil {
		return 0, fmt.Errorf("failed to store chunks: %w", err)
	}

	ix.logger.Info("document indexed",
		zap.String("document_id", documentID),
		zap.String("collection", ix.collection),
		zap.Int("chunks", len(chunks)))

	return len(chunks), nil
}

// RemoveDocument deletes every chunk of a document from the knowledge base.
func (ix *Indexer) RemoveDocument(ctx context.Context, documentID string) error {
	if documentID == "" {
		return fmt.Errorf("document id is required")
	}
	return ix.store.DeleteByDocumentID(ctx, ix.collection, documentID)
}
