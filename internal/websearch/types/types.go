package types

// Result source names as they appear in API responses.
const (
	SourceDuckDuckGo    = "DuckDuckGo"
	SourceGoogle        = "Google"
	SourceTavily        = "Tavily"
	SourceTavilyAI      = "Tavily AI"
	SourceSerpAPI       = "Google (SerpAPI)"
	SourceKnowledgeBase = "KnowledgeBase"
)

// Result kinds assigned by the mixer.
const (
	TypeWeb      = "web"
	TypeDocument = "document"
)

// SearchResult is a single normalized search hit. Results are treated as
// immutable once produced; the mixer copies before tagging.
type SearchResult struct {
	Title   string   `json:"title"`
	URL     string   `json:"url,omitempty"` // empty for non-web sources
	Snippet string   `json:"snippet"`
	Source  string   `json:"source"`
	Rank    int      `json:"rank"`            // provider-local position
	Score   *float64 `json:"score,omitempty"` // [0,1], nil when the provider gives none
	Type    string   `json:"type,omitempty"`  // "web" or "document", set by the mixer
}

// Clone returns a copy of the result.
func (r *SearchResult) Clone() *SearchResult {
	clone := *r
	if r.Score != nil {
		s := *r.Score
		clone.Score = &s
	}
	return &clone
}

// ScoreOf returns a non-nil score value.
func ScoreOf(v float64) *float64 {
	return &v
}

// FanOutResult is the combined output of one multi-provider search.
type FanOutResult struct {
	Query         string          `json:"query"`
	Results       []*SearchResult `json:"results"`
	ProvidersUsed []ProviderID    `json:"providers_used"` // attempted, not necessarily succeeded
	TotalResults  int             `json:"total_results"`
}
