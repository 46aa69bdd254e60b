package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/lk2023060901/rag-search-gateway/internal/knowledge/storage"
	"github.com/lk2023060901/rag-search-gateway/internal/websearch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0}, nil
}

func (f *fakeEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v, err := f.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return 2 }
func (f *fakeEmbedder) Model() string  { return "fake" }

type fakeStore struct {
	hits    []*storage.SearchVectorResult
	lastReq *storage.SearchVectorRequest
	err     error
}

func (f *fakeStore) EnsureCollection(ctx context.Context, name string, dim int) error { return nil }

func (f *fakeStore) InsertChunks(ctx context.Context, name string, chunks []*storage.ChunkVector) error {
	return nil
}

func (f *fakeStore) Search(ctx context.Context, req *storage.SearchVectorRequest) ([]*storage.SearchVectorResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	hits := make([]*storage.SearchVectorResult, 0, len(f.hits))
	for _, h := range f.hits {
		if req.MinScore > 0 && h.Score < req.MinScore {
			continue
		}
		hits = append(hits, h)
	}
	return hits, nil
}

func (f *fakeStore) DeleteByDocumentID(ctx context.Context, name, documentID string) error {
	return nil
}

func hit(docID, title string, score float32) *storage.SearchVectorResult {
	return &storage.SearchVectorResult{
		ChunkID:    docID + "-chunk",
		DocumentID: docID,
		Title:      title,
		Content:    title + " content",
		Score:      score,
	}
}

func newTestRetriever(t *testing.T, store storage.VectorStore) *Retriever {
	t.Helper()
	r, err := NewRetriever(&fakeEmbedder{}, store, &RetrieverConfig{Collection: "docs"}, nil)
	require.NoError(t, err)
	return r
}

func TestSemanticSearchDeduplicatesByDocument(t *testing.T) {
	store := &fakeStore{hits: []*storage.SearchVectorResult{
		hit("doc-1", "first chunk", 0.95),
		hit("doc-1", "second chunk", 0.80),
		hit("doc-2", "other doc", 0.70),
	}}

	r := newTestRetriever(t, store)
	results, err := r.SemanticSearch(context.Background(), "q", 5, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// the highest-scoring chunk represents its document
	assert.Equal(t, "first chunk", results[0].Title)
	require.NotNil(t, results[0].Score)
	assert.InDelta(t, 0.95, *results[0].Score, 1e-6)
	assert.Equal(t, "other doc", results[1].Title)
}

func TestSemanticSearchTagsResults(t *testing.T) {
	store := &fakeStore{hits: []*storage.SearchVectorResult{
		hit("doc-1", "first", 0.9),
	}}

	r := newTestRetriever(t, store)
	results, err := r.SemanticSearch(context.Background(), "q", 5, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, types.SourceKnowledgeBase, results[0].Source)
	assert.Equal(t, types.TypeDocument, results[0].Type)
	assert.Empty(t, results[0].URL)
	assert.Equal(t, 0, results[0].Rank)
}

func TestSemanticSearchRespectsLimit(t *testing.T) {
	store := &fakeStore{hits: []*storage.SearchVectorResult{
		hit("doc-1", "a", 0.9),
		hit("doc-2", "b", 0.8),
		hit("doc-3", "c", 0.7),
	}}

	r := newTestRetriever(t, store)
	results, err := r.SemanticSearch(context.Background(), "q", 2, 0)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	// over-fetch leaves room for per-document dedup
	assert.Equal(t, 4, store.lastReq.TopK)
}

func TestSemanticSearchAppliesThreshold(t *testing.T) {
	store := &fakeStore{hits: []*storage.SearchVectorResult{
		hit("doc-1", "strong", 0.9),
		hit("doc-2", "weak", 0.3),
	}}

	r := newTestRetriever(t, store)
	results, err := r.SemanticSearch(context.Background(), "q", 5, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "strong", results[0].Title)
}

func TestSemanticSearchEmbeddingFailure(t *testing.T) {
	store := &fakeStore{}
	r, err := NewRetriever(&fakeEmbedder{err: errors.New("offline")}, store, &RetrieverConfig{Collection: "docs"}, nil)
	require.NoError(t, err)

	_, err = r.SemanticSearch(context.Background(), "q", 5, 0)
	assert.Error(t, err)
}

func TestSemanticSearchEmptyQuery(t *testing.T) {
	r := newTestRetriever(t, &fakeStore{})
	_, err := r.SemanticSearch(context.Background(), "", 5, 0)
	assert.Error(t, err)
}
