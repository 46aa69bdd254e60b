package websearch

import (
	"context"
	"sync"

	"github.com/lk2023060901/rag-search-gateway/internal/pkg/logger"
	"github.com/lk2023060901/rag-search-gateway/internal/websearch/provider"
	"github.com/lk2023060901/rag-search-gateway/internal/websearch/types"
	"go.uber.org/zap"
)

// Engine fans a query out to every enabled provider concurrently and merges
// the results. A provider failure never fails the whole search: the failing
// provider simply contributes nothing.
type Engine struct {
	providers []provider.Provider // invocation order, fixed at startup
	byID      map[types.ProviderID]provider.Provider
	logger    *logger.Logger
}

// NewEngine builds an engine from provider configurations. Configurations that
// fail validation are skipped with a warning; they correspond to providers
// whose credentials are absent.
func NewEngine(configs []*types.ProviderConfig, factory *provider.Factory, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.L()
	}

	e := &Engine{
		byID:   make(map[types.ProviderID]provider.Provider),
		logger: log,
	}

	for _, cfg := range configs {
		p, err := factory.Create(cfg)
		if err != nil {
			log.Warn("search provider disabled",
				zap.String("provider", string(cfg.ID)),
				zap.Error(err))
			continue
		}
		e.providers = append(e.providers, p)
		e.byID[p.ID()] = p
		log.Info("search provider enabled", zap.String("provider", string(cfg.ID)))
	}

	if len(e.providers) == 0 {
		log.Warn("no search providers configured, web search runs in fallback mode")
	}

	return e
}

// Providers returns the IDs of all enabled providers in invocation order.
func (e *Engine) Providers() []types.ProviderID {
	ids := make([]types.ProviderID, 0, len(e.providers))
	for _, p := range e.providers {
		ids = append(ids, p.ID())
	}
	return ids
}

// Search runs the query against the requested providers in parallel and
// returns the combined, URL-deduplicated result list. When requested is empty
// all enabled providers are used. Search never returns an error: per-provider
// failures degrade to empty result lists.
func (e *Engine) Search(ctx context.Context, query string, maxResults int, requested []types.ProviderID) *types.FanOutResult {
	selected := e.selectProviders(requested)

	out := &types.FanOutResult{
		Query:         query,
		Results:       []*types.SearchResult{},
		ProvidersUsed: []types.ProviderID{},
	}

	if len(selected) == 0 {
		e.logger.Warn("no search providers available", zap.String("query", query))
		return out
	}

	for _, p := range selected {
		out.ProvidersUsed = append(out.ProvidersUsed, p.ID())
	}

	// One slot per provider; each goroutine writes only its own slot, so the
	// join needs no locking.
	slots := make([][]*types.SearchResult, len(selected))
	var wg sync.WaitGroup

	for i, p := range selected {
		wg.Add(1)
		go func(i int, p provider.Provider) {
			defer wg.Done()

			results, err := p.Search(ctx, query, maxResults)
			if err != nil {
				e.logger.Warn("search provider failed",
					zap.String("provider", string(p.ID())),
					zap.String("query", query),
					zap.Error(err))
				return
			}
			slots[i] = results
		}(i, p)
	}

	wg.Wait()

	// Concatenate in invocation order, then deduplicate by URL. Results
	// without a URL (AI summaries, knowledge-base passages) are always kept.
	seen := make(map[string]struct{})
	for _, results := range slots {
		for _, r := range results {
			if r.URL != "" {
				if _, dup := seen[r.URL]; dup {
					continue
				}
				seen[r.URL] = struct{}{}
			}
			out.Results = append(out.Results, r)
		}
	}
	out.TotalResults = len(out.Results)

	e.logger.Info("fan-out search completed",
		zap.String("query", query),
		zap.Int("providers", len(selected)),
		zap.Int("results", out.TotalResults))

	return out
}

// selectProviders resolves the requested provider IDs against the enabled set,
// preserving invocation order. Unknown IDs are skipped.
func (e *Engine) selectProviders(requested []types.ProviderID) []provider.Provider {
	if len(requested) == 0 {
		return e.providers
	}

	selected := make([]provider.Provider, 0, len(requested))
	for _, id := range requested {
		if p, ok := e.byID[id]; ok {
			selected = append(selected, p)
		} else {
			e.logger.Warn("requested provider not enabled", zap.String("provider", string(id)))
		}
	}
	return selected
}
