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

type countingStore struct {
	fakeStore
	searches int
}

func (c *countingStore) Search(ctx context.Context, req *storage.SearchVectorRequest) ([]*storage.SearchVectorResult, error) {
	c.searches++
	return c.fakeStore.Search(ctx, req)
}

type fakeTextSearcher struct {
	results []*types.SearchResult
	err     error
	calls   int
}

func (f *fakeTextSearcher) SearchText(ctx context.Context, collection, query string, limit int) ([]*types.SearchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func textResult(title string) *types.SearchResult {
	return &types.SearchResult{
		Title:   title,
		Snippet: title + " content",
		Source:  types.SourceKnowledgeBase,
		Score:   types.ScoreOf(0.8),
		Type:    types.TypeDocument,
	}
}

func newSemanticService(t *testing.T, store storage.VectorStore, docs TextSearcher, kv KV) *Service {
	t.Helper()

	retriever, err := NewRetriever(&fakeEmbedder{}, store, &RetrieverConfig{Collection: "docs"}, nil)
	require.NoError(t, err)

	var cache *SearchCache
	if kv != nil {
		cache = NewSearchCache(kv, nil, nil)
	}

	svc, err := NewService(retriever, docs, cache, nil, nil)
	require.NoError(t, err)
	return svc
}

func TestServiceSearchCachesTextResults(t *testing.T) {
	searcher := &fakeTextSearcher{results: []*types.SearchResult{textResult("cached doc")}}
	kv := newFakeKV()

	svc, err := NewService(nil, searcher, NewSearchCache(kv, nil, nil), nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	first, cached, err := svc.Search(ctx, "docs", "q", 5)
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, first, 1)

	second, cached, err := svc.Search(ctx, "docs", "q", 5)
	require.NoError(t, err)
	assert.True(t, cached)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Title, second[0].Title)

	assert.Equal(t, 1, searcher.calls)
}

func TestServiceSemanticResultsAreNotCached(t *testing.T) {
	store := &countingStore{fakeStore: fakeStore{hits: []*storage.SearchVectorResult{
		hit("doc-1", "semantic doc", 0.9),
	}}}
	kv := newFakeKV()
	svc := newSemanticService(t, store, nil, kv)
	ctx := context.Background()

	_, cached, err := svc.Search(ctx, "docs", "q", 5)
	require.NoError(t, err)
	assert.False(t, cached)

	_, cached, err = svc.Search(ctx, "docs", "q", 5)
	require.NoError(t, err)
	assert.False(t, cached)

	// the vector index answered both calls; nothing was written to the cache
	assert.Equal(t, 2, store.searches)
	assert.Empty(t, kv.values)
}

func TestServiceSemanticFailureFallsBackToCachedTextSearch(t *testing.T) {
	store := &fakeStore{err: errors.New("milvus down")}
	searcher := &fakeTextSearcher{results: []*types.SearchResult{textResult("fallback doc")}}
	kv := newFakeKV()
	svc := newSemanticService(t, store, searcher, kv)
	ctx := context.Background()

	results, cached, err := svc.Search(ctx, "docs", "q", 5)
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, results, 1)
	assert.Equal(t, "fallback doc", results[0].Title)

	_, cached, err = svc.Search(ctx, "docs", "q", 5)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, searcher.calls)
}

func TestServiceSearchDegradesWhenSemanticFails(t *testing.T) {
	store := &fakeStore{err: errors.New("milvus down")}
	svc := newSemanticService(t, store, nil, nil)

	results, cached, err := svc.Search(context.Background(), "docs", "q", 5)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Empty(t, results)
}

func TestServiceSearchEmptyQuery(t *testing.T) {
	svc := newSemanticService(t, &fakeStore{}, nil, nil)
	_, _, err := svc.Search(context.Background(), "docs", "", 5)
	assert.Error(t, err)
}

func TestServiceRequiresBackend(t *testing.T) {
	_, err := NewService(nil, nil, nil, nil, nil)
	assert.Error(t, err)
}
