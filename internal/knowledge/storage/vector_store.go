package storage

import (
	"context"
)

// VectorStore is the persisted vector index behind the knowledge base.
type VectorStore interface {
	// EnsureCollection creates the collection if it does not exist yet
	EnsureCollection(ctx context.Context, collectionName string, dimension int) error

	// InsertChunks stores embedded document chunks
	InsertChunks(ctx context.Context, collectionName string, chunks []*ChunkVector) error

	// Search returns nearest-neighbour chunks for the query vector
	Search(ctx context.Context, req *SearchVectorRequest) ([]*SearchVectorResult, error)

	// DeleteByDocumentID removes every chunk of a document
	DeleteByDocumentID(ctx context.Context, collectionName, documentID string) error
}

// ChunkVector is one embedded chunk of a document.
type ChunkVector struct {
	ID         string
	DocumentID string
	Title      string
	Content    string
	Embedding  []float32
}

// SearchVectorRequest describes a nearest-neighbour search.
type SearchVectorRequest struct {
	CollectionName string
	Vector         []float32
	TopK           int
	MinScore       float32
}

// SearchVectorResult is one nearest-neighbour hit.
type SearchVectorResult struct {
	ChunkID    string
	DocumentID string
	Title      string
	Content    string
	Score      float32
}
