package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/rag-search-gateway/internal/websearch"
	"github.com/lk2023060901/rag-search-gateway/internal/websearch/provider"
	"github.com/lk2023060901/rag-search-gateway/internal/websearch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	id      types.ProviderID
	results []*types.SearchResult
	err     error
}

func (s *stubProvider) Search(ctx context.Context, query string, maxResults int) ([]*types.SearchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func (s *stubProvider) ID() types.ProviderID { return s.id }
func (s *stubProvider) Name() string         { return string(s.id) }
func (s *stubProvider) Validate() error      { return nil }

func stubResults(prefix string, n int) []*types.SearchResult {
	results := make([]*types.SearchResult, 0, n)
	for i := 0; i < n; i++ {
		results = append(results, &types.SearchResult{
			Title:   prefix,
			URL:     "https://" + prefix + ".example/" + string(rune('a'+i)),
			Snippet: prefix + " snippet",
			Source:  prefix,
			Rank:    i + 1,
		})
	}
	return results
}

func newTestRouter(t *testing.T, stubs ...*stubProvider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

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
	mixer := NewMixer(nil, nil)

	service, err := NewService(engine, nil, mixer, "docs", nil)
	require.NoError(t, err)

	handler := NewHandler(service, nil, nil, nil)

	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)
	return router
}

func doSearch(t *testing.T, router *gin.Engine, body map[string]interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestSearchEndpoint(t *testing.T) {
	router := newTestRouter(t,
		&stubProvider{id: "alpha", results: stubResults("alpha", 3)},
		&stubProvider{id: "beta", results: stubResults("beta", 3)},
	)

	rec, resp := doSearch(t, router, map[string]interface{}{
		"query":       "golang",
		"num_results": 6,
		"use_rag":     false,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "golang", resp["query"])
	assert.EqualValues(t, 6, resp["total_results"])
	assert.EqualValues(t, 6, resp["web_results_count"])
	assert.EqualValues(t, 0, resp["document_results_count"])
	assert.Equal(t, false, resp["rag_enabled"])
	assert.Len(t, resp["results"], 6)

	providers, ok := resp["providers_used"].([]interface{})
	require.True(t, ok)
	assert.ElementsMatch(t, []interface{}{"alpha", "beta"}, providers)

	// search_time is a 2-decimal string of seconds
	assert.Regexp(t, regexp.MustCompile(`^\d+\.\d{2}$`), resp["search_time"])

	ts, ok := resp["timestamp"].(string)
	require.True(t, ok)
	_, err := time.Parse(time.RFC3339, ts)
	assert.NoError(t, err)
}

func TestSearchEndpointEmptyQuery(t *testing.T) {
	router := newTestRouter(t, &stubProvider{id: "alpha", results: stubResults("alpha", 1)})

	rec, _ := doSearch(t, router, map[string]interface{}{"query": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewReader([]byte("{}")))
	req.Header.Set("Content-Type", "application/json")
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestSearchEndpointProviderFailureDegrades(t *testing.T) {
	router := newTestRouter(t,
		&stubProvider{id: "alpha", err: errors.New("boom")},
		&stubProvider{id: "beta", results: stubResults("beta", 2)},
	)

	rec, resp := doSearch(t, router, map[string]interface{}{
		"query":   "golang",
		"use_rag": false,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.EqualValues(t, 2, resp["total_results"])
	providers, _ := resp["providers_used"].([]interface{})
	assert.ElementsMatch(t, []interface{}{"alpha", "beta"}, providers)
}

func TestSearchEndpointRAGWithoutKnowledgeBase(t *testing.T) {
	router := newTestRouter(t, &stubProvider{id: "alpha", results: stubResults("alpha", 2)})

	rec, resp := doSearch(t, router, map[string]interface{}{
		"query": "golang",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, true, resp["rag_enabled"])
	assert.Equal(t, true, resp["mixed_with_documents"])
	assert.EqualValues(t, 2, resp["total_results"])
	assert.EqualValues(t, 0, resp["document_results_count"])

	results, ok := resp["results"].([]interface{})
	require.True(t, ok)
	first, ok := results[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "web", first["type"])
}

func TestSearchEndpointProviderSubset(t *testing.T) {
	router := newTestRouter(t,
		&stubProvider{id: "alpha", results: stubResults("alpha", 2)},
		&stubProvider{id: "beta", results: stubResults("beta", 2)},
	)

	rec, resp := doSearch(t, router, map[string]interface{}{
		"query":     "golang",
		"use_rag":   false,
		"providers": []string{"beta"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	providers, _ := resp["providers_used"].([]interface{})
	assert.Equal(t, []interface{}{"beta"}, providers)
	assert.EqualValues(t, 2, resp["total_results"])
}

func TestProvidersEndpoint(t *testing.T) {
	router := newTestRouter(t,
		&stubProvider{id: "alpha"},
		&stubProvider{id: "beta"},
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/providers", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Code int `json:"code"`
		Data struct {
			Providers []string `json:"providers"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, []string{"alpha", "beta"}, resp.Data.Providers)
}
