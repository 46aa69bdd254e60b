package storage

import (
	"context"
	"fmt"

	"github.com/lk2023060901/rag-search-gateway/internal/pkg/logger"
	"github.com/lk2023060901/rag-search-gateway/internal/pkg/milvus"
	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
	"go.uber.org/zap"
)

// MilvusStore implements VectorStore on Milvus.
type MilvusStore struct {
	client *milvus.Client
	logger *logger.Logger
}

// NewMilvusStore creates a Milvus-backed vector store.
func NewMilvusStore(client *milvus.Client, lgr *logger.Logger) *MilvusStore {
	if lgr == nil {
		lgr = logger.L()
	}
	return &MilvusStore{
		client: client,
		logger: lgr,
	}
}

// EnsureCollection creates the collection, index and load state if missing.
func (s *MilvusStore) EnsureCollection(ctx context.Context, collectionName string, dimension int) error {
	cli := s.client.GetClient()
	if cli == nil {
		return fmt.Errorf("milvus client is not available")
	}

	has, err := cli.HasCollection(ctx, milvusclient.NewHasCollectionOption(collectionName))
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if has {
		return nil
	}

	schema := entity.NewSchema().
		WithName(collectionName).
		WithField(entity.NewField().WithName("id").WithDataType(entity.FieldTypeVarChar).WithMaxLength(64).WithIsPrimaryKey(true)).
		WithField(entity.NewField().WithName("document_id").WithDataType(entity.FieldTypeVarChar).WithMaxLength(64)).
		WithField(entity.NewField().WithName("title").WithDataType(entity.FieldTypeVarChar).WithMaxLength(1024)).
		WithField(entity.NewField().WithName("content").WithDataType(entity.FieldTypeVarChar).WithMaxLength(65535)).
		WithField(entity.NewField().WithName("embedding").WithDataType(entity.FieldTypeFloatVector).WithDim(int64(dimension)))

	if err := cli.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(collectionName, schema)); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx := index.NewAutoIndex(entity.COSINE)
	if _, err := cli.CreateIndex(ctx, milvusclient.NewCreateIndexOption(collectionName, "embedding", idx)); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	loadTask, err := cli.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(collectionName))
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for collection load: %w", err)
	}

	s.logger.Info("milvus collection created",
		zap.String("collection", collectionName),
		zap.Int("dimension", dimension))

	return nil
}

// InsertChunks stores embedded chunks and flushes the collection.
func (s *MilvusStore) InsertChunks(ctx context.Context, collectionName string, chunks []*ChunkVector) error {
	if len(chunks) == 0 {
		return nil
	}

	cli := s.client.GetClient()
	if cli == nil {
		return fmt.Errorf("milvus client is not available")
	}

	ids := make([]string, len(chunks))
	documentIDs := make([]string, len(chunks))
	titles := make([]string, len(chunks))
	contents := make([]string, len(chunks))
	embeddings := make([][]float32, len(chunks))

	for i, chunk := range chunks {
		ids[i] = chunk.ID
		documentIDs[i] = chunk.DocumentID
		titles[i] = chunk.Title
		contents[i] = chunk.Content
		embeddings[i] = chunk.Embedding
	}

	_, err := cli.Insert(ctx, milvusclient.NewColumnBasedInsertOption(collectionName).
		WithColumns(
			column.NewColumnVarChar("id", ids),
			column.NewColumnVarChar("document_id", documentIDs),
			column.NewColumnVarChar("title", titles),
			column.NewColumnVarChar("content", contents),
			column.NewColumnFloatVector("embedding", len(embeddings[0]), embeddings),
		))
	if err != nil {
		return fmt.Errorf("failed to insert vectors: %w", err)
	}

	flushTask, err := cli.Flush(ctx, milvusclient.NewFlushOption(collectionName))
	if err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	if err := flushTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for flush: %w", err)
	}

	s.logger.Info("vectors inserted",
		zap.String("collection", collectionName),
		zap.Int("count", len(chunks)))

	return nil
}

// Search returns nearest-neighbour chunks, filtered by MinScore.
func (s *MilvusStore) Search(ctx context.Context, req *SearchVectorRequest) ([]*SearchVectorResult, error) {
	cli := s.client.GetClient()
	if cli == nil {
		return nil, fmt.Errorf("milvus client is not available")
	}

	searchResult, err := cli.Search(ctx, milvusclient.NewSearchOption(
		req.CollectionName,
		req.TopK,
		[]entity.Vector{entity.FloatVector(req.Vector)},
	).WithOutputFields("document_id", "title", "content"))
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	var results []*SearchVectorResult
	for _, resultSet := range searchResult {
		idCol := resultSet.IDs
		docIDs := resultSet.GetColumn("document_id")
		titles := resultSet.GetColumn("title")
		contents := resultSet.GetColumn("content")

		for i := 0; i < resultSet.ResultCount; i++ {
			score := resultSet.Scores[i]

			// COSINE similarity is in [0,1], higher is more similar
			if req.MinScore > 0 && score < req.MinScore {
				continue
			}

			chunkID, _ := idCol.GetAsString(i)
			documentID, _ := docIDs.GetAsString(i)
			title, _ := titles.GetAsString(i)
			content, _ := contents.GetAsString(i)

			results = append(results, &SearchVectorResult{
				ChunkID:    chunkID,
				DocumentID: documentID,
				Title:      title,
				Content:    content,
				Score:      score,
			})
		}
	}

	return results, nil
}

// DeleteByDocumentID removes every chunk of a document.
func (s *MilvusStore) DeleteByDocumentID(ctx context.Context, collectionName, documentID string) error {
	cli := s.client.GetClient()
	if cli == nil {
		return fmt.Errorf("milvus client is not available")
	}

	expr := fmt.Sprintf("document_id == '%s'", documentID)
	deleteOpt := milvusclient.NewDeleteOption(collectionName)
	deleteOpt.WithExpr(expr)

	if _, err := cli.Delete(ctx, deleteOpt); err != nil {
		return fmt.Errorf("failed to delete by document_id: %w", err)
	}

	flushTask, err := cli.Flush(ctx, milvusclient.NewFlushOption(collectionName))
	if err != nil {
		return fmt.Errorf("failed to flush after delete: %w", err)
	}
	if err := flushTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for flush after delete: %w", err)
	}

	return nil
}
