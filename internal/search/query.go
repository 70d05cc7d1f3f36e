package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Sort orders.
const (
	SortRelevance = "relevance"
	SortRecent    = "recent"
	SortPopular   = "popular"
)

// SearchParams configures a search query.
type SearchParams struct {
	Query   string
	Tags    []string // every tag must match
	Domain  string   // only curations linking to this host
	OwnerID string

	Limit  int
	Offset int

	SortBy string

	IncludeFacets bool
	Highlight     bool
}

// DefaultSearchParams returns relevance-sorted results with tag facets.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:         20,
		SortBy:        SortRelevance,
		IncludeFacets: true,
		Highlight:     true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"took_ms"`
	Hits   []SearchHit  `json:"hits"`
	Tags   []FacetCount `json:"tags,omitempty"`
}

// SearchHit is one matching curation.
type SearchHit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Title      string            `json:"title"`
	OwnerID    string            `json:"owner_id"`
	Tags       []string          `json:"tags,omitempty"`
	LikeCount  int               `json:"like_count"`
	TabCount   int               `json:"tab_count"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search executes a query.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultSearchParams().Limit
	}

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	addSorting(req, params.SortBy)

	if params.IncludeFacets {
		req.AddFacet("tags", bleve.NewFacetRequest("tags", 20))
	}
	if params.Highlight {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("title")
		req.Highlight.AddField("description")
	}
	req.Fields = []string{"title", "owner_id", "tags", "like_count", "tab_count"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(res.Hits)),
	}

	for _, hit := range res.Hits {
		h := SearchHit{ID: hit.ID, Score: hit.Score}
		if v, ok := hit.Fields["title"].(string); ok {
			h.Title = v
		}
		if v, ok := hit.Fields["owner_id"].(string); ok {
			h.OwnerID = v
		}
		h.Tags = stringsField(hit.Fields["tags"])
		if v, ok := hit.Fields["like_count"].(float64); ok {
			h.LikeCount = int(v)
		}
		if v, ok := hit.Fields["tab_count"].(float64); ok {
			h.TabCount = int(v)
		}

		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, h)
	}

	if facet, ok := res.Facets["tags"]; ok && facet.Terms != nil {
		for _, term := range facet.Terms.Terms() {
			result.Tags = append(result.Tags, FacetCount{Value: term.Term, Count: term.Count})
		}
	}

	return result, nil
}

// stringsField reads a stored multi-value field. Bleve returns a bare string
// when only one value was indexed.
func stringsField(v any) []string {
	switch vals := v.(type) {
	case string:
		return []string{vals}
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// buildSearchQuery matches text across title, description, and tab titles,
// then narrows by the keyword filters.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		titleMatch := bleve.NewMatchQuery(q)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)

		descMatch := bleve.NewMatchQuery(q)
		descMatch.SetField("description")
		descMatch.SetBoost(1.5)

		tabMatch := bleve.NewMatchQuery(q)
		tabMatch.SetField("tab_text")

		tagMatch := bleve.NewTermQuery(strings.ToLower(q))
		tagMatch.SetField("tags")
		tagMatch.SetBoost(2.0)

		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("title")
		fuzzy.SetBoost(0.8)

		textQueries := []query.Query{titleMatch, descMatch, tabMatch, tagMatch, fuzzy}

		// Prefix for type-ahead.
		if len(q) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(q))
			prefix.SetField("title")
			prefix.SetBoost(0.5)
			textQueries = append(textQueries, prefix)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	for _, tag := range params.Tags {
		tq := bleve.NewTermQuery(tag)
		tq.SetField("tags")
		queries = append(queries, tq)
	}

	if params.Domain != "" {
		dq := bleve.NewTermQuery(strings.TrimPrefix(strings.ToLower(params.Domain), "www."))
		dq.SetField("domains")
		queries = append(queries, dq)
	}

	if params.OwnerID != "" {
		oq := bleve.NewTermQuery(params.OwnerID)
		oq.SetField("owner_id")
		queries = append(queries, oq)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}

func addSorting(req *bleve.SearchRequest, sortBy string) {
	switch sortBy {
	case SortRecent:
		req.SortBy([]string{"-updated_at", "-_score"})
	case SortPopular:
		req.SortBy([]string{"-like_count", "-view_count", "-_score"})
	default:
		req.SortBy([]string{"-_score", "-updated_at"})
	}
}
