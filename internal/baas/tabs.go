package baas

import (
	"context"

	"github.com/tabsverse/tabsverse-server/internal/domain"
	"github.com/tabsverse/tabsverse-server/internal/id"
	"github.com/tabsverse/tabsverse-server/internal/store"
)

// CreateTab appends a tab through append_tab, which assigns the position
// and bumps the curation's tab count in one transaction.
func (s *Store) CreateTab(ctx context.Context, t *domain.Tab) error {
	if t.ID == "" {
		t.ID = id.NewUUID()
	}
	if t.CreatedAt.IsZero() {
		t.InitTimestamps()
	}
	if t.ResourceType == "" {
		t.ResourceType = domain.ResourceWebpage
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}

	var created *domain.Tab
	if err := s.client.RPC(ctx, "append_tab", map[string]any{"p_tab": t}, &created); err != nil {
		return translate(err)
	}
	if created == nil {
		return store.ErrNotFound
	}
	*t = *created
	return nil
}

// GetTab retrieves a tab by ID.
func (s *Store) GetTab(ctx context.Context, id string) (*domain.Tab, error) {
	var rows []domain.Tab
	if err := s.client.SelectRows(ctx, tableTabs, NewFilter().Eq("id", id).Select("*"), &rows); err != nil {
		return nil, translate(err)
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	return &rows[0], nil
}

// UpdateTab writes a tab's editable fields.
func (s *Store) UpdateTab(ctx context.Context, t *domain.Tab) error {
	t.Touch()
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}

	var rows []struct {
		ID string `json:"id"`
	}
	err := s.client.Update(ctx, tableTabs, NewFilter().Eq("id", t.ID).Select("id"), map[string]any{
		"url":           t.URL,
		"title":         t.Title,
		"description":   t.Description,
		"thumbnail_url": t.ThumbnailURL,
		"favicon_url":   t.FaviconURL,
		"resource_type": t.ResourceType,
		"tags":          tags,
		"notes":         t.Notes,
		"updated_at":    t.UpdatedAt,
	}, &rows)
	if err != nil {
		return translate(err)
	}
	if len(rows) == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteTab removes a tab and decrements its curation's tab counter.
func (s *Store) DeleteTab(ctx context.Context, id string) error {
	var deleted bool
	if err := s.client.RPC(ctx, "delete_tab", map[string]string{"p_id": id}, &deleted); err != nil {
		return translate(err)
	}
	if !deleted {
		return store.ErrNotFound
	}
	return nil
}

// ListTabs returns a curation's tabs ordered by position.
func (s *Store) ListTabs(ctx context.Context, curationID string) ([]*domain.Tab, error) {
	tabs := []*domain.Tab{}
	filter := NewFilter().Eq("curation_id", curationID).Select("*").Order("position.asc,created_at.asc")
	if err := s.client.SelectRows(ctx, tableTabs, filter, &tabs); err != nil {
		return nil, translate(err)
	}
	return tabs, nil
}

// ReorderTabs rewrites positions through reorder_tabs, which rejects an
// order that does not name every tab of the curation exactly once.
func (s *Store) ReorderTabs(ctx context.Context, curationID string, tabIDs []string) error {
	err := s.client.RPC(ctx, "reorder_tabs", map[string]any{
		"p_curation_id": curationID,
		"p_tab_ids":     tabIDs,
	}, nil)
	return translate(err)
}

// IncrementClicks bumps a tab's click counter.
func (s *Store) IncrementClicks(ctx context.Context, id string) error {
	var affected int
	if err := s.client.RPC(ctx, "increment_tab_clicks", map[string]string{"p_id": id}, &affected); err != nil {
		return translate(err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
