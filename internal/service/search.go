package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tabsverse/tabsverse-server/internal/domain"
	"github.com/tabsverse/tabsverse-server/internal/search"
	"github.com/tabsverse/tabsverse-server/internal/store"
)

// CurationIndexer keeps a search index in step with curation writes.
type CurationIndexer interface {
	IndexCuration(ctx context.Context, c *domain.Curation) error
	DeleteCuration(ctx context.Context, id string) error
}

// NoopIndexer is used when search is disabled.
type NoopIndexer struct{}

// IndexCuration does nothing.
func (NoopIndexer) IndexCuration(context.Context, *domain.Curation) error { return nil }

// DeleteCuration does nothing.
func (NoopIndexer) DeleteCuration(context.Context, string) error { return nil }

// SearchService bridges the search index with the data store. Only public
// curations are indexed.
type SearchService struct {
	index  *search.SearchIndex
	store  store.Store
	logger *slog.Logger
}

var _ CurationIndexer = (*SearchService)(nil)

// NewSearchService creates a new search service.
func NewSearchService(index *search.SearchIndex, store store.Store, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		store:  store,
		logger: logger,
	}
}

// Search runs a query against the index.
func (s *SearchService) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	return s.index.Search(ctx, params)
}

// IndexCuration indexes a public curation with its tabs, or removes a
// private one from the index.
func (s *SearchService) IndexCuration(ctx context.Context, c *domain.Curation) error {
	if !c.IsPublic() {
		return s.index.DeleteCuration(c.ID)
	}

	tabs, err := s.store.ListTabs(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("list tabs: %w", err)
	}

	if err := s.index.IndexCuration(search.CurationToDocument(c, tabs)); err != nil {
		return fmt.Errorf("index curation: %w", err)
	}

	s.logger.Debug("indexed curation", "id", c.ID, "title", c.Title, "tabs", len(tabs))
	return nil
}

// DeleteCuration removes a curation from the index.
func (s *SearchService) DeleteCuration(_ context.Context, id string) error {
	return s.index.DeleteCuration(id)
}

// DocumentCount returns the number of indexed documents.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}

// ReindexAll rebuilds the index from every public curation.
func (s *SearchService) ReindexAll(ctx context.Context) error {
	s.logger.Info("starting full reindex")

	if err := s.index.Rebuild(); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	params := store.PaginationParams{Limit: 200}
	var docs []*search.CurationDocument
	for {
		page, err := s.store.ListPublicCurations(ctx, params)
		if err != nil {
			return fmt.Errorf("list curations: %w", err)
		}

		for _, c := range page.Items {
			tabs, err := s.store.ListTabs(ctx, c.ID)
			if err != nil {
				s.logger.Warn("failed to list tabs for curation", "id", c.ID, "error", err)
				continue
			}
			docs = append(docs, search.CurationToDocument(c, tabs))
		}

		if !page.HasMore {
			break
		}
		params.Cursor = page.NextCursor
	}

	if len(docs) > 0 {
		if err := s.index.IndexCurations(docs); err != nil {
			return fmt.Errorf("index curations: %w", err)
		}
	}

	total, _ := s.index.DocumentCount()
	s.logger.Info("full reindex complete", "total_documents", total)
	return nil
}
