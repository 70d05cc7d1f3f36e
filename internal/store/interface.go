// Package store defines persistence for curations and tabs.
//
// Three backends implement Store: the BaaS REST tables (internal/baas),
// SQLite for single-node deployments (store/sqlite), and Postgres through
// gorm (store/postgres).
package store

import (
	"context"

	"github.com/tabsverse/tabsverse-server/internal/domain"
)

// Store is the full persistence surface used by the services.
type Store interface {
	CurationStore
	TabStore
	Close() error
}

// CurationStore persists curations, their counters, and likes.
type CurationStore interface {
	CreateCuration(ctx context.Context, c *domain.Curation) error
	GetCuration(ctx context.Context, id string) (*domain.Curation, error)
	// UpdateCuration writes owner-editable fields when c.Version matches the
	// stored version, then increments c.Version. Returns ErrVersionConflict
	// when the row moved on.
	UpdateCuration(ctx context.Context, c *domain.Curation) error
	// DeleteCuration removes the curation and cascades to its tabs and likes.
	DeleteCuration(ctx context.Context, id string) error
	ListCurationsByOwner(ctx context.Context, ownerID string, params PaginationParams) (*PaginatedResult[*domain.Curation], error)
	ListPublicCurations(ctx context.Context, params PaginationParams) (*PaginatedResult[*domain.Curation], error)
	// ListCoverRefs returns every curation with a non-null cover URL.
	ListCoverRefs(ctx context.Context) ([]domain.CoverRef, error)
	// UpdateCover sets or clears the cover if the stored version equals
	// update.ExpectedVersion, returning the updated row.
	UpdateCover(ctx context.Context, id string, update domain.CoverUpdate) (*domain.Curation, error)
	IncrementViews(ctx context.Context, id string) error
	// SetLike records or removes userID's like and returns the new like count.
	SetLike(ctx context.Context, curationID, userID string, liked bool) (int, error)
}

// TabStore persists tabs. Tab counts on the parent curation are kept in
// step by the backend.
type TabStore interface {
	// CreateTab appends the tab after the curation's last position.
	CreateTab(ctx context.Context, t *domain.Tab) error
	GetTab(ctx context.Context, id string) (*domain.Tab, error)
	UpdateTab(ctx context.Context, t *domain.Tab) error
	DeleteTab(ctx context.Context, id string) error
	// ListTabs returns a curation's tabs ordered by position.
	ListTabs(ctx context.Context, curationID string) ([]*domain.Tab, error)
	// ReorderTabs assigns positions 0..n-1 following tabIDs.
	ReorderTabs(ctx context.Context, curationID string, tabIDs []string) error
	IncrementClicks(ctx context.Context, id string) error
}
