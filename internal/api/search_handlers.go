package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tabsverse/tabsverse-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchCurations",
		Method:      http.MethodGet,
		Path:        "/api/v1/curations/search",
		Summary:     "Search curations",
		Description: "Full-text search over public curations and the tabs inside them",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// === DTOs ===

// SearchInput contains parameters for searching public curations.
type SearchInput struct {
	Query   string `query:"q" maxLength:"200" doc:"Search query. Empty matches everything."`
	Tags    string `query:"tags" maxLength:"300" doc:"Comma-separated tags; every tag must match"`
	Domain  string `query:"domain" maxLength:"253" doc:"Only curations with a tab on this host"`
	OwnerID string `query:"owner_id" maxLength:"100" doc:"Only curations of this user"`
	Sort    string `query:"sort" enum:"relevance,recent,popular" default:"relevance" doc:"Sort order"`
	Limit   int    `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Max results"`
	Offset  int    `query:"offset" minimum:"0" doc:"Pagination offset"`
	Facets  bool   `query:"facets" doc:"Include tag facets in response"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body *search.SearchResult
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	s.logger.Debug("Search request received",
		"query", input.Query,
		"tags", input.Tags,
		"domain", input.Domain,
		"limit", input.Limit,
	)

	params := search.DefaultSearchParams()
	params.Query = strings.TrimSpace(input.Query)
	params.Domain = strings.ToLower(strings.TrimSpace(input.Domain))
	params.OwnerID = input.OwnerID
	params.SortBy = input.Sort
	params.Limit = input.Limit
	params.Offset = input.Offset
	params.IncludeFacets = input.Facets

	if input.Tags != "" {
		for t := range strings.SplitSeq(input.Tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				params.Tags = append(params.Tags, t)
			}
		}
	}

	result, err := s.services.Curations.Search(ctx, params)
	if err != nil {
		s.logger.Error("Search failed", "error", err, "query", input.Query)
		return nil, err
	}

	if result.Hits == nil {
		result.Hits = []search.SearchHit{}
	}
	return &SearchOutput{Body: result}, nil
}
