package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/lk2023060901/rag-search-gateway/internal/websearch/types"
)

// DuckDuckGoProvider scrapes the DuckDuckGo HTML endpoint. It is keyless and
// therefore always enabled.
type DuckDuckGoProvider struct {
	*BaseProvider
}

// NewDuckDuckGoProvider creates a new DuckDuckGo provider
func NewDuckDuckGoProvider(config *types.ProviderConfig) (Provider, error) {
	return &DuckDuckGoProvider{BaseProvider: NewBaseProvider(config)}, nil
}

// Search executes a search query against the DuckDuckGo HTML endpoint
func (p *DuckDuckGoProvider) Search(ctx context.Context, query string, maxResults int) ([]*types.SearchResult, error) {
	if maxResults == 0 {
		maxResults = 10
	}

	params := url.Values{}
	params.Set("q", query)

	apiURL := fmt.Sprintf("%s/html/?%s", p.config.APIHost, params.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", p.BuildDefaultHeaders()["User-Agent"])

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

	return p.parseResults(resp.Body, maxResults)
}

// parseResults extracts results from the DuckDuckGo HTML response
func (p *DuckDuckGoProvider) parseResults(body io.Reader, maxResults int) ([]*types.SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	results := make([]*types.SearchResult, 0, maxResults)
	doc.Find("div.result").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(results) >= maxResults {
			return false
		}

		link := s.Find("a.result__a")
		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		snippet := strings.TrimSpace(s.Find(".result__snippet").Text())

		if title == "" && href == "" {
			return true
		}

		results = append(results, &types.SearchResult{
			Title:   title,
			URL:     cleanDuckDuckGoURL(href),
			Snippet: snippet,
			Source:  types.SourceDuckDuckGo,
			Rank:    len(results) + 1,
		})
		return true
	})

	return results, nil
}

// cleanDuckDuckGoURL unwraps the redirect URLs DuckDuckGo uses for result links
// (e.g. //duckduckgo.com/l/?uddg=<encoded>).
func cleanDuckDuckGoURL(raw string) string {
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	if strings.Contains(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			if decoded, err := url.QueryUnescape(target); err == nil {
				return decoded
			}
			return target
		}
	}

	if u.Scheme == "" {
		u.Scheme = "https"
		return u.String()
	}

	return raw
}
