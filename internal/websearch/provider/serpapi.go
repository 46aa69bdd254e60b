package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/lk2023060901/rag-search-gateway/internal/websearch/types"
	"github.com/tidwall/gjson"
)

// SerpAPIProvider implements the SerpAPI Google Search aggregator
type SerpAPIProvider struct {
	*BaseProvider
}

// NewSerpAPIProvider creates a new SerpAPI provider
func NewSerpAPIProvider(config *types.ProviderConfig) (Provider, error) {
	return &SerpAPIProvider{BaseProvider: NewBaseProvider(config)}, nil
}

// Search executes a search query using SerpAPI
func (p *SerpAPIProvider) Search(ctx context.Context, query string, maxResults int) ([]*types.SearchResult, error) {
	if maxResults == 0 {
		maxResults = 10
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("num", fmt.Sprintf("%d", maxResults))
	params.Set("api_key", p.APIKey())

	apiURL := fmt.Sprintf("%s/search.json?%s", p.config.APIHost, params.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.DoRequest(ctx, httpReq)
	if err != nil {
		return nil, &types.ProviderError{
			Provider: p.ID(),
			Code:     "REQUEST_FAILED",
			Message:  "Failed to execute request",
			Err:      err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &types.ProviderError{
			Provider: p.ID(),
			Code:     fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:  string(body),
		}
	}

	if !gjson.ValidBytes(body) {
		return nil, types.ErrInvalidResponse
	}

	organic := gjson.GetBytes(body, "organic_results").Array()
	results := make([]*types.SearchResult, 0, len(organic))
	for i, item := range organic {
		if i >= maxResults {
			break
		}
		results = append(results, &types.SearchResult{
			Title:   item.Get("title").String(),
			URL:     item.Get("link").String(),
			Snippet: item.Get("snippet").String(),
			Source:  types.SourceSerpAPI,
			Rank:    i + 1,
		})
	}

	return results, nil
}
