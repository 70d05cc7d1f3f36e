package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tabsverse/tabsverse-server/internal/domain"
	domainerrors "github.com/tabsverse/tabsverse-server/internal/errors"
	"github.com/tabsverse/tabsverse-server/internal/search"
	"github.com/tabsverse/tabsverse-server/internal/store"
	"github.com/tabsverse/tabsverse-server/internal/util"
	"github.com/tabsverse/tabsverse-server/internal/validation"
)

// CreateCurationInput is the body of a create request.
type CreateCurationInput struct {
	Title       string   `json:"title" validate:"required,max=120"`
	Description string   `json:"description,omitempty" validate:"max=2000"`
	Visibility  string   `json:"visibility,omitempty" validate:"omitempty,oneof=private public"`
	Tags        []string `json:"tags,omitempty" validate:"max=6,dive,tag,max=40"`
	// CoverPath attaches a cover uploaded before the curation existed.
	CoverPath string `json:"cover_path,omitempty"`
}

// UpdateCurationInput is a partial update. Version, when non-zero, must
// match the stored version.
type UpdateCurationInput struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,min=1,max=120"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Visibility  *string  `json:"visibility,omitempty" validate:"omitempty,oneof=private public"`
	Tags        []string `json:"tags,omitempty" validate:"omitempty,max=6,dive,tag,max=40"`
	Version     int      `json:"version,omitempty"`
}

// CurationService manages curations, their counters, and likes.
type CurationService struct {
	store     store.Store
	covers    *CoverService
	indexer   CurationIndexer
	searcher  *SearchService
	validator *validation.Validator
	logger    *slog.Logger
}

// NewCurationService creates a curation service. searcher may be nil, in
// which case Search is unavailable and writes are not indexed.
func NewCurationService(s store.Store, covers *CoverService, searcher *SearchService, validator *validation.Validator, logger *slog.Logger) *CurationService {
	var indexer CurationIndexer = NoopIndexer{}
	if searcher != nil {
		indexer = searcher
	}
	return &CurationService{
		store:     s,
		covers:    covers,
		indexer:   indexer,
		searcher:  searcher,
		validator: validator,
		logger:    logger,
	}
}

// Create creates a curation owned by userID.
func (s *CurationService) Create(ctx context.Context, userID string, in CreateCurationInput) (*domain.Curation, error) {
	if userID == "" {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	c := &domain.Curation{
		OwnerID:     userID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Visibility:  domain.VisibilityPrivate,
		Tags:        util.NormalizeTags(in.Tags, util.MaxTags),
	}
	if in.Visibility != "" {
		c.Visibility = domain.Visibility(in.Visibility)
	}

	if in.CoverPath != "" {
		url, err := s.covers.Attach(in.CoverPath)
		if err != nil {
			return nil, err
		}
		c.CoverImageURL = &url
		c.CoverImagePath = &in.CoverPath
	}

	if err := s.store.CreateCuration(ctx, c); err != nil {
		return nil, storeError(err, "curation")
	}

	s.index(ctx, c)
	s.logger.Info("curation created", "id", c.ID, "owner_id", userID, "visibility", c.Visibility)
	return c, nil
}

// Get returns a curation the caller may view. Private curations of other
// users are reported as not found.
func (s *CurationService) Get(ctx context.Context, id, userID string) (*domain.Curation, error) {
	c, err := s.store.GetCuration(ctx, id)
	if err != nil {
		return nil, storeError(err, "curation")
	}
	if !c.CanView(userID) {
		return nil, domainerrors.NotFound("curation not found")
	}
	return c, nil
}

// editable loads a curation and checks that userID owns it.
func (s *CurationService) editable(ctx context.Context, id, userID string) (*domain.Curation, error) {
	if userID == "" {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	c, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !c.CanEdit(userID) {
		return nil, domainerrors.Forbidden("you do not own this curation")
	}
	return c, nil
}

// Update applies a partial update.
func (s *CurationService) Update(ctx context.Context, id, userID string, in UpdateCurationInput) (*domain.Curation, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	c, err := s.editable(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if in.Version != 0 && in.Version != c.Version {
		return nil, domainerrors.Conflict("curation was modified by another request")
	}

	patch := domain.CurationPatch{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		patch.Title = &title
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		patch.Description = &desc
	}
	if in.Visibility != nil {
		v := domain.Visibility(*in.Visibility)
		patch.Visibility = &v
	}
	if in.Tags != nil {
		patch.Tags = util.NormalizeTags(in.Tags, util.MaxTags)
	}
	patch.Apply(c)
	c.Touch()

	if err := s.store.UpdateCuration(ctx, c); err != nil {
		return nil, storeError(err, "curation")
	}

	s.index(ctx, c)
	return c, nil
}

// Delete removes a curation and its tabs, then its cover object.
func (s *CurationService) Delete(ctx context.Context, id, userID string) error {
	c, err := s.editable(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteCuration(ctx, c.ID); err != nil {
		return storeError(err, "curation")
	}

	if ref, ok := c.CoverRef(); ok {
		s.covers.discard(ctx, ref)
	}
	if err := s.indexer.DeleteCuration(ctx, c.ID); err != nil {
		s.logger.Warn("failed to remove curation from search index", "id", c.ID, "error", err)
	}

	s.logger.Info("curation deleted", "id", c.ID, "owner_id", userID)
	return nil
}

// ListMine lists the caller's curations, newest first.
func (s *CurationService) ListMine(ctx context.Context, userID string, params store.PaginationParams) (*store.PaginatedResult[*domain.Curation], error) {
	if userID == "" {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	if err := checkPage(&params); err != nil {
		return nil, err
	}
	result, err := s.store.ListCurationsByOwner(ctx, userID, params)
	if err != nil {
		return nil, storeError(err, "curation")
	}
	return result, nil
}

// ListPublic lists public curations, newest first.
func (s *CurationService) ListPublic(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Curation], error) {
	if err := checkPage(&params); err != nil {
		return nil, err
	}
	result, err := s.store.ListPublicCurations(ctx, params)
	if err != nil {
		return nil, storeError(err, "curation")
	}
	return result, nil
}

// RecordView counts a view of a curation the caller may see.
func (s *CurationService) RecordView(ctx context.Context, id, userID string) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}
	if err := s.store.IncrementViews(ctx, id); err != nil {
		return storeError(err, "curation")
	}
	return nil
}

// SetLike likes or unlikes a curation and returns the new like count.
func (s *CurationService) SetLike(ctx context.Context, id, userID string, liked bool) (int, error) {
	if userID == "" {
		return 0, domainerrors.Unauthorized("authentication required")
	}
	c, err := s.Get(ctx, id, userID)
	if err != nil {
		return 0, err
	}

	count, err := s.store.SetLike(ctx, id, userID, liked)
	if err != nil {
		return 0, storeError(err, "curation")
	}

	c.LikeCount = count
	s.index(ctx, c)
	return count, nil
}

// Search queries public curations.
func (s *CurationService) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	if s.searcher == nil {
		return nil, domainerrors.Internal("search is not enabled")
	}
	params.Tags = util.NormalizeTags(params.Tags, util.MaxTags)
	result, err := s.searcher.Search(ctx, params)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "search failed")
	}
	return result, nil
}

// Reindex refreshes one curation's search document from the store.
func (s *CurationService) Reindex(ctx context.Context, id string) {
	c, err := s.store.GetCuration(ctx, id)
	if err != nil {
		s.logger.Warn("failed to load curation for reindex", "id", id, "error", err)
		return
	}
	s.index(ctx, c)
}

// index updates the search document. Failures are logged; the write that
// triggered it has already succeeded.
func (s *CurationService) index(ctx context.Context, c *domain.Curation) {
	if err := s.indexer.IndexCuration(ctx, c); err != nil {
		s.logger.Warn("failed to index curation", "id", c.ID, "error", err)
	}
}

// checkPage clamps the limit and rejects undecodable cursors.
func checkPage(params *store.PaginationParams) error {
	params.Validate()
	if _, err := params.Offset(); err != nil {
		return domainerrors.Validation("invalid cursor").WithCause(err)
	}
	return nil
}
