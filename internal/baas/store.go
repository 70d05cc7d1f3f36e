package baas

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tabsverse/tabsverse-server/internal/domain"
	"github.com/tabsverse/tabsverse-server/internal/id"
	"github.com/tabsverse/tabsverse-server/internal/store"
)

// Table names.
const (
	tableCurations = "curations"
	tableTabs      = "tabs"
)

// coverRefPage bounds each ListCoverRefs request below PostgREST's max-rows.
const coverRefPage = 1000

// Store implements store.Store on the BaaS tables. Counters, tab positions,
// and cascades run in database functions (see schema.sql) so each operation
// is a single request.
type Store struct {
	client *Client
}

var _ store.Store = (*Store)(nil)

// NewStore returns a table store using client.
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (s *Store) Close() error {
	return nil
}

// translate maps BaaS sentinels onto store errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return store.ErrNotFound.WithCause(err)
	case errors.Is(err, ErrConflict):
		return store.ErrAlreadyExists.WithCause(err)
	case errors.Is(err, ErrBadRequest):
		return store.ErrInvalidInput.WithCause(err)
	}
	return err
}

// CreateCuration inserts a new curation at version 1.
func (s *Store) CreateCuration(ctx context.Context, c *domain.Curation) error {
	if c.ID == "" {
		c.ID = id.NewUUID()
	}
	if c.CreatedAt.IsZero() {
		c.InitTimestamps()
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	c.Version = 1

	var rows []domain.Curation
	if err := s.client.Insert(ctx, tableCurations, c, &rows); err != nil {
		return translate(err)
	}
	if len(rows) == 1 {
		*c = rows[0]
	}
	return nil
}

// GetCuration retrieves a curation by ID.
func (s *Store) GetCuration(ctx context.Context, id string) (*domain.Curation, error) {
	var rows []domain.Curation
	err := s.client.SelectRows(ctx, tableCurations, NewFilter().Eq("id", id).Select("*"), &rows)
	if err != nil {
		return nil, translate(err)
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	return &rows[0], nil
}

// UpdateCuration writes the editable fields under a version check.
func (s *Store) UpdateCuration(ctx context.Context, c *domain.Curation) error {
	c.Touch()
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}

	var rows []domain.Curation
	err := s.client.Update(ctx, tableCurations,
		NewFilter().Eq("id", c.ID).Eq("version", fmt.Sprint(c.Version)),
		map[string]any{
			"title":       c.Title,
			"description": c.Description,
			"visibility":  c.Visibility,
			"tags":        tags,
			"updated_at":  c.UpdatedAt,
			"version":     c.Version + 1,
		}, &rows)
	if err != nil {
		return translate(err)
	}
	if len(rows) == 0 {
		return s.versionMiss(ctx, c.ID, c.Version)
	}
	c.Version++
	return nil
}

// versionMiss explains a guarded update that matched no row.
func (s *Store) versionMiss(ctx context.Context, id string, expected int) error {
	current, err := s.GetCuration(ctx, id)
	if err != nil {
		return err
	}
	return store.ErrVersionConflict.WithCause(fmt.Errorf("expected version %d, found %d", expected, current.Version))
}

// DeleteCuration removes a curation. Tabs and likes cascade via foreign keys.
func (s *Store) DeleteCuration(ctx context.Context, id string) error {
	var rows []struct {
		ID string `json:"id"`
	}
	err := s.client.DeleteRows(ctx, tableCurations, NewFilter().Eq("id", id).Select("id"), &rows)
	if err != nil {
		return translate(err)
	}
	if len(rows) == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListCurationsByOwner returns an owner's curations, most recently updated first.
func (s *Store) ListCurationsByOwner(ctx context.Context, ownerID string, params store.PaginationParams) (*store.PaginatedResult[*domain.Curation], error) {
	return s.listCurations(ctx, NewFilter().Eq("owner_id", ownerID), params)
}

// ListPublicCurations returns public curations, most recently updated first.
func (s *Store) ListPublicCurations(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Curation], error) {
	return s.listCurations(ctx, NewFilter().Eq("visibility", string(domain.VisibilityPublic)), params)
}

func (s *Store) listCurations(ctx context.Context, filter Filter, params store.PaginationParams) (*store.PaginatedResult[*domain.Curation], error) {
	params.Validate()
	offset, err := params.Offset()
	if err != nil {
		return nil, store.ErrInvalidInput.WithCause(err)
	}

	var rows []*domain.Curation
	filter = filter.Select("*").Order("updated_at.desc,id.asc").Page(params.Limit+1, offset)
	if err := s.client.SelectRows(ctx, tableCurations, filter, &rows); err != nil {
		return nil, translate(err)
	}
	return store.Paginate(rows, params, offset), nil
}

type coverRefRow struct {
	ID   string  `json:"id"`
	URL  string  `json:"cover_image_url"`
	Path *string `json:"cover_image_path"`
}

// ListCoverRefs returns every curation that references a cover image.
func (s *Store) ListCoverRefs(ctx context.Context) ([]domain.CoverRef, error) {
	var refs []domain.CoverRef
	for offset := 0; ; offset += coverRefPage {
		var rows []coverRefRow
		filter := NewFilter().
			Select("id,cover_image_url,cover_image_path").
			NotNull("cover_image_url").
			Neq("cover_image_url", "").
			Order("id.asc").
			Page(coverRefPage, offset)
		if err := s.client.SelectRows(ctx, tableCurations, filter, &rows); err != nil {
			return nil, translate(err)
		}

		for _, r := range rows {
			ref := domain.CoverRef{CurationID: r.ID, URL: r.URL}
			if r.Path != nil {
				ref.Path = *r.Path
			}
			refs = append(refs, ref)
		}
		if len(rows) < coverRefPage {
			return refs, nil
		}
	}
}

// UpdateCover sets or clears the cover under a version check.
func (s *Store) UpdateCover(ctx context.Context, id string, update domain.CoverUpdate) (*domain.Curation, error) {
	var rows []domain.Curation
	err := s.client.Update(ctx, tableCurations,
		NewFilter().Eq("id", id).Eq("version", fmt.Sprint(update.ExpectedVersion)).Select("*"),
		map[string]any{
			"cover_image_url":  update.URL,
			"cover_image_path": update.Path,
			"cover_blurhash":   update.BlurHash,
			"updated_at":       time.Now().UTC(),
			"version":          update.ExpectedVersion + 1,
		}, &rows)
	if err != nil {
		return nil, translate(err)
	}
	if len(rows) == 0 {
		return nil, s.versionMiss(ctx, id, update.ExpectedVersion)
	}
	return &rows[0], nil
}

// IncrementViews bumps the view counter without touching the version.
func (s *Store) IncrementViews(ctx context.Context, id string) error {
	var affected int
	if err := s.client.RPC(ctx, "increment_curation_views", map[string]string{"p_id": id}, &affected); err != nil {
		return translate(err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SetLike records or removes a like and returns the recomputed counter.
func (s *Store) SetLike(ctx context.Context, curationID, userID string, liked bool) (int, error) {
	var count *int
	err := s.client.RPC(ctx, "set_curation_like", map[string]any{
		"p_curation_id": curationID,
		"p_user_id":     userID,
		"p_liked":       liked,
	}, &count)
	if err != nil {
		return 0, translate(err)
	}
	if count == nil {
		return 0, store.ErrNotFound
	}
	return *count, nil
}
