package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tabsverse/tabsverse-server/internal/domain"
	domainerrors "github.com/tabsverse/tabsverse-server/internal/errors"
	"github.com/tabsverse/tabsverse-server/internal/metadata"
	"github.com/tabsverse/tabsverse-server/internal/store"
	"github.com/tabsverse/tabsverse-server/internal/util"
	"github.com/tabsverse/tabsverse-server/internal/validation"
)

// MetadataExtractor looks up what a link points at.
type MetadataExtractor interface {
	Extract(ctx context.Context, rawURL string) (*domain.URLMetadata, error)
}

// CreateTabInput is the body of an add-tab request. Fields left empty are
// filled from extracted metadata.
type CreateTabInput struct {
	URL          string   `json:"url" validate:"required,httpurl,max=2048"`
	Title        string   `json:"title,omitempty" validate:"max=300"`
	Description  *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Notes        string   `json:"notes,omitempty" validate:"max=2000"`
	ResourceType string   `json:"resource_type,omitempty" validate:"omitempty,oneof=webpage pdf video image document"`
	Tags         []string `json:"tags,omitempty" validate:"max=6,dive,tag,max=40"`
}

// UpdateTabInput is a partial tab update.
type UpdateTabInput struct {
	Title        *string  `json:"title,omitempty" validate:"omitempty,min=1,max=300"`
	Description  *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Notes        *string  `json:"notes,omitempty" validate:"omitempty,max=2000"`
	ResourceType *string  `json:"resource_type,omitempty" validate:"omitempty,oneof=webpage pdf video image document"`
	Tags         []string `json:"tags,omitempty" validate:"omitempty,max=6,dive,tag,max=40"`
}

// TabService manages the links inside curations.
type TabService struct {
	store     store.Store
	extractor MetadataExtractor
	curations *CurationService
	validator *validation.Validator
	logger    *slog.Logger
}

// NewTabService creates a tab service.
func NewTabService(s store.Store, extractor MetadataExtractor, curations *CurationService, validator *validation.Validator, logger *slog.Logger) *TabService {
	return &TabService{
		store:     s,
		extractor: extractor,
		curations: curations,
		validator: validator,
		logger:    logger,
	}
}

// Create appends a tab to a curation the caller owns. Metadata extraction
// never fails the request except for a malformed URL.
func (s *TabService) Create(ctx context.Context, curationID, userID string, in CreateTabInput) (*domain.Tab, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	u, err := metadata.ParseURL(in.URL)
	if err != nil {
		return nil, err
	}

	if _, err := s.curations.editable(ctx, curationID, userID); err != nil {
		return nil, err
	}

	t := &domain.Tab{
		CurationID:   curationID,
		URL:          u.String(),
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Notes:        in.Notes,
		ResourceType: domain.ResourceType(in.ResourceType),
		Tags:         util.NormalizeTags(in.Tags, util.MaxTags),
	}

	meta, err := s.extractor.Extract(ctx, t.URL)
	if err != nil {
		if domainerrors.CodeOf(err) == domainerrors.CodeInvalidURL {
			return nil, err
		}
		s.logger.Warn("metadata extraction failed", "url", t.URL, "error", err)
	} else {
		t.ApplyMetadata(meta)
	}
	if t.Title == "" {
		t.Title = u.Hostname()
	}
	if t.ResourceType == "" {
		t.ResourceType = domain.ResourceWebpage
	}

	if err := s.store.CreateTab(ctx, t); err != nil {
		return nil, storeError(err, "curation")
	}

	s.curations.Reindex(ctx, curationID)
	s.logger.Debug("tab created", "id", t.ID, "curation_id", curationID, "type", t.ResourceType)
	return t, nil
}

// List returns the tabs of a curation the caller may view, by position.
func (s *TabService) List(ctx context.Context, curationID, userID string) ([]*domain.Tab, error) {
	if _, err := s.curations.Get(ctx, curationID, userID); err != nil {
		return nil, err
	}
	tabs, err := s.store.ListTabs(ctx, curationID)
	if err != nil {
		return nil, storeError(err, "curation")
	}
	if tabs == nil {
		tabs = []*domain.Tab{}
	}
	return tabs, nil
}

// editableTab loads a tab whose curation userID owns.
func (s *TabService) editableTab(ctx context.Context, tabID, userID string) (*domain.Tab, error) {
	t, err := s.store.GetTab(ctx, tabID)
	if err != nil {
		return nil, storeError(err, "tab")
	}
	if _, err := s.curations.editable(ctx, t.CurationID, userID); err != nil {
		return nil, err
	}
	return t, nil
}

// Update applies a partial update to a tab.
func (s *TabService) Update(ctx context.Context, tabID, userID string, in UpdateTabInput) (*domain.Tab, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	t, err := s.editableTab(ctx, tabID, userID)
	if err != nil {
		return nil, err
	}

	patch := domain.TabPatch{
		Title:       in.Title,
		Description: in.Description,
		Notes:       in.Notes,
	}
	if in.ResourceType != nil {
		rt := domain.ResourceType(*in.ResourceType)
		patch.ResourceType = &rt
	}
	if in.Tags != nil {
		patch.Tags = util.NormalizeTags(in.Tags, util.MaxTags)
	}
	patch.Apply(t)
	t.Touch()

	if err := s.store.UpdateTab(ctx, t); err != nil {
		return nil, storeError(err, "tab")
	}

	s.curations.Reindex(ctx, t.CurationID)
	return t, nil
}

// Delete removes a tab.
func (s *TabService) Delete(ctx context.Context, tabID, userID string) error {
	t, err := s.editableTab(ctx, tabID, userID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTab(ctx, t.ID); err != nil {
		return storeError(err, "tab")
	}
	s.curations.Reindex(ctx, t.CurationID)
	return nil
}

// Reorder sets tab positions to follow tabIDs, which must list every tab of
// the curation exactly once.
func (s *TabService) Reorder(ctx context.Context, curationID, userID string, tabIDs []string) ([]*domain.Tab, error) {
	if _, err := s.curations.editable(ctx, curationID, userID); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(tabIDs))
	for _, tabID := range tabIDs {
		if _, dup := seen[tabID]; dup {
			return nil, domainerrors.Validationf("tab %s is listed more than once", tabID)
		}
		seen[tabID] = struct{}{}
	}

	if err := s.store.ReorderTabs(ctx, curationID, tabIDs); err != nil {
		return nil, storeError(err, "curation")
	}
	return s.List(ctx, curationID, userID)
}

// RecordClick counts a click on a tab in a curation the caller may view.
func (s *TabService) RecordClick(ctx context.Context, tabID, userID string) error {
	t, err := s.store.GetTab(ctx, tabID)
	if err != nil {
		return storeError(err, "tab")
	}
	if _, err := s.curations.Get(ctx, t.CurationID, userID); err != nil {
		return domainerrors.NotFound("tab not found")
	}
	if err := s.store.IncrementClicks(ctx, tabID); err != nil {
		return storeError(err, "tab")
	}
	return nil
}
