package search

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/lk2023060901/rag-search-gateway/internal/knowledge/embedding"
	"github.com/lk2023060901/rag-search-gateway/internal/pkg/logger"
	"github.com/lk2023060901/rag-search-gateway/internal/websearch/types"
	"go.uber.org/zap"
)

// neutralScore is assumed for results that carry no score when ranking.
// It keeps un-scored web results competitive with scored ones.
const neutralScore = 0.5

// Mixer merges web and knowledge-base results into one ranked list.
// It never fails: embedding errors leave the affected result un-scored and
// a missing kb list degrades the mix to web-only.
type Mixer struct {
	embedder embedding.Embedder
	logger   *logger.Logger
}

// MixOptions controls one mix call.
type MixOptions struct {
	UseRAG           bool
	MixWithDocuments bool
	MaxResults       int

	// Headroom overrides the output bound. Zero means
	// MaxResults * number of contributing sources.
	Headroom int
}

// MixedResultSet is the ranked output of a mix call.
type MixedResultSet struct {
	Query          string                `json:"query"`
	Results        []*types.SearchResult `json:"results"`
	WebCount       int                   `json:"web_results_count"`
	KnowledgeCount int                   `json:"document_results_count"`
}

// NewMixer creates a mixer. A nil embedder disables re-scoring; mixing still
// works with the scores the sources provided.
func NewMixer(embedder embedding.Embedder, lgr *logger.Logger) *Mixer {
	if lgr == nil {
		lgr = logger.L()
	}
	return &Mixer{
		embedder: embedder,
		logger:   lgr,
	}
}

// Mix combines web and knowledge-base results into one ranked list.
//
// With UseRAG off this is a fast path: web results are returned truncated to
// MaxResults (or Headroom when set) with no embedding calls. With UseRAG on,
// web snippets are
// re-scored against the query embedding (best-effort, concurrent), both lists
// are tagged and merged, sorted by score descending with a stable order for
// ties, and truncated to MaxResults per contributing source.
func (m *Mixer) Mix(ctx context.Context, query string, webResults, kbResults []*types.SearchResult, opts MixOptions) *MixedResultSet {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 5
	}

	if !opts.UseRAG {
		bound := opts.MaxResults
		if opts.Headroom > 0 {
			bound = opts.Headroom
		}
		results := cloneAll(webResults)
		if len(results) > bound {
			results = results[:bound]
		}
		return &MixedResultSet{
			Query:    query,
			Results:  results,
			WebCount: len(results),
		}
	}

	web := cloneAll(webResults)
	for _, r := range web {
		r.Type = types.TypeWeb
	}

	var kb []*types.SearchResult
	if opts.MixWithDocuments {
		kb = cloneAll(kbResults)
		for _, r := range kb {
			r.Type = types.TypeDocument
		}
	}

	m.rescoreWeb(ctx, query, web)

	merged := make([]*types.SearchResult, 0, len(web)+len(kb))
	merged = append(merged, web...)
	merged = append(merged, kb...)

	sort.SliceStable(merged, func(i, j int) bool {
		return scoreOrNeutral(merged[i]) > scoreOrNeutral(merged[j])
	})

	sources := 1
	if len(kb) > 0 {
		sources = 2
	}
	bound := opts.MaxResults * sources
	if opts.Headroom > 0 {
		bound = opts.Headroom
	}
	if len(merged) > bound {
		merged = merged[:bound]
	}

	webCount := 0
	kbCount := 0
	for _, r := range merged {
		if r.Type == types.TypeDocument {
			kbCount++
		} else {
			webCount++
		}
	}

	return &MixedResultSet{
		Query:          query,
		Results:        merged,
		WebCount:       webCount,
		KnowledgeCount: kbCount,
	}
}

// rescoreWeb replaces each web result's score with the cosine similarity of
// its snippet to the query. Every failure leaves the result as it was.
func (m *Mixer) rescoreWeb(ctx context.Context, query string, web []*types.SearchResult) {
	if m.embedder == nil || len(web) == 0 {
		return
	}

	queryVec, err := m.embedder.Embed(ctx, query)
	if err != nil {
		m.logger.Warn("query embedding failed, keeping provider scores",
			zap.String("query", query),
			zap.Error(err))
		return
	}

	var wg sync.WaitGroup
	for _, r := range web {
		if r.Snippet == "" {
			continue
		}

		wg.Add(1)
		go func(r *types.SearchResult) {
			defer wg.Done()

			snippetVec, err := m.embedder.Embed(ctx, r.Snippet)
			if err != nil {
				m.logger.Warn("snippet embedding failed, keeping result un-scored",
					zap.String("url", r.URL),
					zap.Error(err))
				return
			}

			if sim, ok := cosineSimilarity(queryVec, snippetVec); ok {
				r.Score = types.ScoreOf(sim)
			}
		}(r)
	}
	wg.Wait()
}

func scoreOrNeutral(r *types.SearchResult) float64 {
	if r.Score != nil {
		return *r.Score
	}
	return neutralScore
}

func cloneAll(results []*types.SearchResult) []*types.SearchResult {
	clones := make([]*types.SearchResult, 0, len(results))
	for _, r := range results {
		clones = append(clones, r.Clone())
	}
	return clones
}

// cosineSimilarity maps cosine similarity from [-1,1] into [0,1].
func cosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, false
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return (sim + 1) / 2, true
}
