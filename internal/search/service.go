package search

import (
	"context"
	"fmt"
	"time"

	"github.com/lk2023060901/rag-search-gateway/internal/knowledge"
	"github.com/lk2023060901/rag-search-gateway/internal/pkg/logger"
	"github.com/lk2023060901/rag-search-gateway/internal/websearch"
	"github.com/lk2023060901/rag-search-gateway/internal/websearch/types"
	"go.uber.org/zap"
)

// Service runs the full search pipeline: provider fan-out, knowledge-base
// retrieval and mixing. Component failures degrade; only input validation
// errors reach the caller.
type Service struct {
	engine     *websearch.Engine
	kb         *knowledge.Service
	mixer      *Mixer
	collection string
	logger     *logger.Logger
}

// SearchRequest is the body of a search call.
type SearchRequest struct {
	Query            string   `json:"query" binding:"required"`
	NumResults       int      `json:"num_results"`
	UseRAG           *bool    `json:"use_rag"`
	MixWithDocuments *bool    `json:"mix_with_documents"`
	Providers        []string `json:"providers"`
}

// SearchResponse is the wire shape of a search result set.
type SearchResponse struct {
	Query                string                `json:"query"`
	Results              []*types.SearchResult `json:"results"`
	TotalResults         int                   `json:"total_results"`
	WebResultsCount      int                   `json:"web_results_count"`
	DocumentResultsCount int                   `json:"document_results_count"`
	ProvidersUsed        []types.ProviderID    `json:"providers_used"`
	RAGEnabled           bool                  `json:"rag_enabled"`
	MixedWithDocuments   bool                  `json:"mixed_with_documents"`
	SearchTime           string                `json:"search_time"`
	Timestamp            string                `json:"timestamp"`
}

// NewService creates the search service. kb may be nil when no knowledge
// backend is configured.
func NewService(engine *websearch.Engine, kb *knowledge.Service, mixer *Mixer, collection string, lgr *logger.Logger) (*Service, error) {
	if engine == nil {
		return nil, fmt.Errorf("search engine is required")
	}
	if mixer == nil {
		return nil, fmt.Errorf("mixer is required")
	}
	if collection == "" {
		collection = "documents"
	}

	log := lgr
	if log == nil {
		log = logger.L()
	}

	return &Service{
		engine:     engine,
		kb:         kb,
		mixer:      mixer,
		collection: collection,
		logger:     log,
	}, nil
}

// Search runs one query through the whole pipeline.
func (s *Service) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	if req == nil || req.Query == "" {
		return nil, fmt.Errorf("query is required")
	}

	numResults := req.NumResults
	if numResults <= 0 {
		numResults = 5
	}
	useRAG := req.UseRAG == nil || *req.UseRAG
	mixWithDocuments := req.MixWithDocuments == nil || *req.MixWithDocuments

	started := time.Now()

	requested := make([]types.ProviderID, 0, len(req.Providers))
	for _, p := range req.Providers {
		requested = append(requested, types.ProviderID(p))
	}

	fanOut := s.engine.Search(ctx, req.Query, numResults, requested)

	var kbResults []*types.SearchResult
	if useRAG && mixWithDocuments && s.kb != nil {
		results, _, err := s.kb.Search(ctx, s.collection, req.Query, numResults)
		if err != nil {
			s.logger.Warn("knowledge search failed, mixing web-only",
				zap.String("query", req.Query),
				zap.Error(err))
		} else {
			kbResults = results
		}
	}

	mixOpts := MixOptions{
		UseRAG:           useRAG,
		MixWithDocuments: mixWithDocuments,
		MaxResults:       numResults,
	}
	if !useRAG && len(fanOut.ProvidersUsed) > 0 {
		// the plain web path keeps every provider's share of the results
		mixOpts.Headroom = numResults * len(fanOut.ProvidersUsed)
	}

	mixed := s.mixer.Mix(ctx, req.Query, fanOut.Results, kbResults, mixOpts)

	return &SearchResponse{
		Query:                req.Query,
		Results:              mixed.Results,
		TotalResults:         len(mixed.Results),
		WebResultsCount:      mixed.WebCount,
		DocumentResultsCount: mixed.KnowledgeCount,
		ProvidersUsed:        fanOut.ProvidersUsed,
		RAGEnabled:           useRAG,
		MixedWithDocuments:   mixWithDocuments,
		SearchTime:           fmt.Sprintf("%.2f", time.Since(started).Seconds()),
		Timestamp:            time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// KnowledgeSearch queries only the knowledge base.
func (s *Service) KnowledgeSearch(ctx context.Context, query string, limit int) ([]*types.SearchResult, bool, error) {
	if s.kb == nil {
		return nil, false, fmt.Errorf("knowledge base is not configured")
	}
	return s.kb.Search(ctx, s.collection, query, limit)
}

// SemanticSearch queries the vector index directly, bypassing cache and
// text fallback.
func (s *Service) SemanticSearch(ctx context.Context, query string, limit int, scoreThreshold float32) ([]*types.SearchResult, error) {
	if s.kb == nil {
		return nil, fmt.Errorf("knowledge base is not configured")
	}
	return s.kb.SemanticSearch(ctx, query, limit, scoreThreshold)
}

// Providers returns the enabled provider IDs.
func (s *Service) Providers() []types.ProviderID {
	return s.engine.Providers()
}

// Collection returns the knowledge-base collection the service searches.
func (s *Service) Collection() string {
	return s.collection
}
