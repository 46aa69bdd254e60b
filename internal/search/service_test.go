package search

import (
	"context"
	"testing"

	"github.com/lk2023060901/rag-search-gateway/internal/websearch"
	"github.com/lk2023060901/rag-search-gateway/internal/websearch/provider"
	"github.com/lk2023060901/rag-search-gateway/internal/websearch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubService(t *testing.T, stubs ...*stubProvider) *Service {
	t.Helper()

	factory := provider.NewFactory()
	configs := make([]*types.ProviderConfig, 0, len(stubs))
	for _, s := range stubs {
		s := s
		factory.Register(s.id, func(*types.ProviderConfig) (provider.Provider, error) {
			return s, nil
		})
		configs = append(configs, &types.ProviderConfig{
			ID:      s.id,
			Name:    string(s.id),
			APIHost: "https://example.com",
			APIKey:  "test",
		})
	}

	engine := websearch.NewEngine(configs, factory, nil)
	service, err := NewService(engine, nil, NewMixer(nil, nil), "docs", nil)
	require.NoError(t, err)
	return service
}

func useRAG(v bool) *bool { return &v }

func TestServiceSearchWithoutRAGKeepsAllProviderResults(t *testing.T) {
	svc := newStubService(t,
		&stubProvider{id: "alpha", results: stubResults("alpha", 3)},
		&stubProvider{id: "beta", results: stubResults("beta", 3)},
	)

	// default num_results (5) with two providers of 3 distinct URLs each:
	// the plain web path returns all 6, bounded by num_results per provider
	resp, err := svc.Search(context.Background(), &SearchRequest{
		Query:  "golang",
		UseRAG: useRAG(false),
	})
	require.NoError(t, err)

	assert.Equal(t, 6, resp.TotalResults)
	assert.Equal(t, 6, resp.WebResultsCount)
	assert.Len(t, resp.Results, 6)
	assert.ElementsMatch(t, []types.ProviderID{"alpha", "beta"}, resp.ProvidersUsed)
}

func TestServiceSearchWithoutRAGBoundScalesWithProviders(t *testing.T) {
	svc := newStubService(t,
		&stubProvider{id: "alpha", results: stubResults("alpha", 5)},
		&stubProvider{id: "beta", results: stubResults("beta", 5)},
	)

	resp, err := svc.Search(context.Background(), &SearchRequest{
		Query:      "golang",
		NumResults: 3,
		UseRAG:     useRAG(false),
	})
	require.NoError(t, err)

	// bound is num_results * attempted providers
	assert.Equal(t, 6, resp.TotalResults)
}

func TestServiceSearchSingleProviderBound(t *testing.T) {
	svc := newStubService(t,
		&stubProvider{id: "alpha", results: stubResults("alpha", 5)},
	)

	resp, err := svc.Search(context.Background(), &SearchRequest{
		Query:      "golang",
		NumResults: 3,
		UseRAG:     useRAG(false),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, resp.TotalResults)
}

func TestServiceSearchEmptyQueryRejected(t *testing.T) {
	svc := newStubService(t, &stubProvider{id: "alpha"})

	_, err := svc.Search(context.Background(), &SearchRequest{Query: ""})
	assert.Error(t, err)
}
