package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lk2023060901/rag-search-gateway/internal/websearch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTavilyTestProvider(t *testing.T, host string) *TavilyProvider {
	t.Helper()
	p, err := NewTavilyProvider(&types.ProviderConfig{
		ID:      types.ProviderTavily,
		Name:    "Tavily",
		APIHost: host,
		APIKey:  "test-key",
	})
	require.NoError(t, err)
	return p.(*TavilyProvider)
}

func TestTavilySearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req tavilyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "golang", req.Query)
		assert.True(t, req.IncludeAnswer)

		json.NewEncoder(w).Encode(tavilyResponse{
			Answer: "Go is a statically typed language.",
			Results: []struct {
				Title   string  `json:"title"`
				URL     string  `json:"url"`
				Content string  `json:"content"`
				Score   float64 `json:"score"`
			}{
				{Title: "Go", URL: "https://go.dev", Content: "The Go site.", Score: 0.95},
			},
		})
	}))
	defer server.Close()

	p := newTavilyTestProvider(t, server.URL)

	results, err := p.Search(context.Background(), "golang", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// AI answer leads with no URL so dedup never drops it
	assert.Equal(t, types.SourceTavilyAI, results[0].Source)
	assert.Empty(t, results[0].URL)
	assert.Equal(t, 0, results[0].Rank)
	assert.Equal(t, "Go is a statically typed language.", results[0].Snippet)

	assert.Equal(t, types.SourceTavily, results[1].Source)
	assert.Equal(t, "https://go.dev", results[1].URL)
	require.NotNil(t, results[1].Score)
	assert.InDelta(t, 0.95, *results[1].Score, 1e-9)
}

func TestTavilySearchNoAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(tavilyResponse{})
	}))
	defer server.Close()

	p := newTavilyTestProvider(t, server.URL)

	results, err := p.Search(context.Background(), "golang", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
