package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lk2023060901/rag-search-gateway/internal/websearch/types"
)

// Provider defines the interface for search providers
type Provider interface {
	// Search executes a search query and returns normalized results.
	// Rank is the provider-local position; no cross-provider comparison is meaningful.
	Search(ctx context.Context, query string, maxResults int) ([]*types.SearchResult, error)

	// ID returns the provider ID
	ID() types.ProviderID

	// Name returns the provider display name
	Name() string

	// Validate validates the provider configuration
	Validate() error
}

// BaseProvider provides common functionality for all providers
type BaseProvider struct {
	config     *types.ProviderConfig
	httpClient *http.Client
	apiKeys    []string      // Support multiple API keys for rotation
	keyIndex   atomic.Uint64 // Rotation counter, safe for concurrent requests
}

// NewBaseProvider creates a new base provider
func NewBaseProvider(config *types.ProviderConfig) *BaseProvider {
	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	// Parse multiple API keys (comma-separated)
	var apiKeys []string
	if config.APIKey != "" {
		apiKeys = strings.Split(config.APIKey, ",")
		for i := range apiKeys {
			apiKeys[i] = strings.TrimSpace(apiKeys[i])
		}
	}

	return &BaseProvider{
		config:     config,
		httpClient: httpClient,
		apiKeys:    apiKeys,
	}
}

// ID returns the provider ID
func (b *BaseProvider) ID() types.ProviderID {
	return b.config.ID
}

// Name returns the provider display name
func (b *BaseProvider) Name() string {
	return b.config.Name
}

// Config returns the provider configuration
func (b *BaseProvider) Config() *types.ProviderConfig {
	return b.config
}

// APIKey returns the next API key in rotation
func (b *BaseProvider) APIKey() string {
	if len(b.apiKeys) == 0 {
		return ""
	}

	idx := b.keyIndex.Add(1) - 1
	return b.apiKeys[idx%uint64(len(b.apiKeys))]
}

// BuildDefaultHeaders builds default HTTP headers
func (b *BaseProvider) BuildDefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"User-Agent":   "RAG-Search-Gateway/1.0",
	}
}

// DoRequest executes an HTTP request with retry logic
func (b *BaseProvider) DoRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	maxRetries := b.config.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		resp, err := b.httpClient.Do(req.WithContext(ctx))
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if ctx.Err() != nil {
			break
		}

		// Exponential backoff
		if i < maxRetries-1 {
			backoff := time.Duration(1<<uint(i)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("request failed after %d retries: %w", maxRetries, lastErr)
}

// Validate validates the provider configuration
func (b *BaseProvider) Validate() error {
	return b.config.Validate()
}
