package knowledge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lk2023060901/rag-search-gateway/internal/pkg/redis"
	"github.com/lk2023060901/rag-search-gateway/internal/websearch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKV struct {
	values  map[string]string
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	lastKey string
}

func newFakeKV() *fakeKV {
	return &fakeKV{
		values: make(map[string]string),
		ttls:   make(map[string]time.Duration),
	}
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	f.lastKey = key
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.values[key]
	if !ok {
		return "", redis.ErrNil
	}
	return v, nil
}

func (f *fakeKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value.(string)
	f.ttls[key] = expiration
	return nil
}

func sampleResults() []*types.SearchResult {
	return []*types.SearchResult{
		{
			Title:   "doc",
			Snippet: "content",
			Source:  types.SourceKnowledgeBase,
			Score:   types.ScoreOf(0.8),
			Type:    types.TypeDocument,
		},
	}
}

func TestSearchCacheRoundTrip(t *testing.T) {
	kv := newFakeKV()
	cache := NewSearchCache(kv, nil, nil)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "docs", "query")
	assert.False(t, ok)

	cache.Put(ctx, "docs", "query", sampleResults())

	got, ok := cache.Get(ctx, "docs", "query")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "doc", got[0].Title)
	require.NotNil(t, got[0].Score)
	assert.InDelta(t, 0.8, *got[0].Score, 1e-9)
}

func TestSearchCacheKeyFormat(t *testing.T) {
	kv := newFakeKV()
	cache := NewSearchCache(kv, nil, nil)

	cache.Get(context.Background(), "docs", "hello world")
	assert.Equal(t, "search:docs:hello world", kv.lastKey)
}

func TestSearchCacheDefaultTTL(t *testing.T) {
	kv := newFakeKV()
	cache := NewSearchCache(kv, nil, nil)

	cache.Put(context.Background(), "docs", "q", sampleResults())
	assert.Equal(t, 300*time.Second, kv.ttls["search:docs:q"])
}

func TestSearchCacheCustomTTL(t *testing.T) {
	kv := newFakeKV()
	cache := NewSearchCache(kv, &SearchCacheConfig{TTL: time.Minute}, nil)

	cache.Put(context.Background(), "docs", "q", sampleResults())
	assert.Equal(t, time.Minute, kv.ttls["search:docs:q"])
}

func TestSearchCacheErrorsDegradeToMiss(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errors.New("connection refused")
	kv.setErr = errors.New("connection refused")
	cache := NewSearchCache(kv, nil, nil)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "docs", "q")
	assert.False(t, ok)

	// a failed put is silent
	cache.Put(ctx, "docs", "q", sampleResults())
}

func TestSearchCacheCorruptEntryIsMiss(t *testing.T) {
	kv := newFakeKV()
	kv.values["search:docs:q"] = "{not json"
	cache := NewSearchCache(kv, nil, nil)

	_, ok := cache.Get(context.Background(), "docs", "q")
	assert.False(t, ok)
}

func TestSearchCacheNilKV(t *testing.T) {
	cache := NewSearchCache(nil, nil, nil)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "docs", "q")
	assert.False(t, ok)
	cache.Put(ctx, "docs", "q", sampleResults())
}
