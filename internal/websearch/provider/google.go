package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/lk2023060901/rag-search-gateway/internal/websearch/types"
)

// GoogleProvider implements the Google Custom Search JSON API
type GoogleProvider struct {
	*BaseProvider
}

// NewGoogleProvider creates a new Google Custom Search provider
func NewGoogleProvider(config *types.ProviderConfig) (Provider, error) {
	return &GoogleProvider{BaseProvider: NewBaseProvider(config)}, nil
}

// googleResponse represents a Custom Search API response
type googleResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// Search executes a search query using the Google Custom Search API
func (p *GoogleProvider) Search(ctx context.Context, query string, maxResults int) ([]*types.SearchResult, error) {
	if maxResults == 0 {
		maxResults = 10
	}
	// The API returns at most 10 results per request
	if maxResults > 10 {
		maxResults = 10
	}

	params := url.Values{}
	params.Set("key", p.APIKey())
	params.Set("cx", p.config.EngineID)
	params.Set("q", query)
	params.Set("num", fmt.Sprintf("%d", maxResults))

	apiURL := fmt.Sprintf("%s/customsearch/v1?%s", p.config.APIHost, params.Encode())
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

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &types.ProviderError{
			Provider: p.ID(),
			Code:     fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:  string(body),
		}
	}

	var googleResp googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&googleResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]*types.SearchResult, 0, len(googleResp.Items))
	for i, item := range googleResp.Items {
		results = append(results, &types.SearchResult{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
			Source:  types.SourceGoogle,
			Rank:    i + 1,
		})
	}

	return results, nil
}
