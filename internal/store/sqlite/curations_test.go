package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tabsverse/tabsverse-server/internal/domain"
	"github.com/tabsverse/tabsverse-server/internal/store"
)

func strPtr(s string) *string { return &s }

func TestCreateAndGetCuration(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := &domain.Curation{
		OwnerID:     "user-1",
		Title:       "Go reading list",
		Description: "Things worth reading",
		Visibility:  domain.VisibilityPublic,
		Tags:        []string{"go", "backend"},
	}
	if err := s.CreateCuration(ctx, c); err != nil {
		t.Fatalf("CreateCuration: %v", err)
	}
	if c.ID == "" {
		t.Fatal("expected generated ID")
	}
	if c.Version != 1 {
		t.Errorf("Version = %d, want 1", c.Version)
	}

	got, err := s.GetCuration(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCuration: %v", err)
	}
	if got.Title != c.Title || got.Description != c.Description {
		t.Errorf("got %q/%q, want %q/%q", got.Title, got.Description, c.Title, c.Description)
	}
	if got.Visibility != domain.VisibilityPublic {
		t.Errorf("Visibility = %s", got.Visibility)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "go" || got.Tags[1] != "backend" {
		t.Errorf("Tags = %v", got.Tags)
	}
	if got.CoverImageURL != nil || got.CoverImagePath != nil {
		t.Errorf("expected no cover, got %v/%v", got.CoverImageURL, got.CoverImagePath)
	}
	if !got.CreatedAt.Equal(c.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, c.CreatedAt)
	}
}

func TestCreateCuration_Duplicate(t *testing.T) {
	s := newTestStore(t)
	insertTestCuration(t, s, "cur-1", "user-1", domain.VisibilityPrivate)

	err := s.CreateCuration(context.Background(), &domain.Curation{ID: "cur-1", OwnerID: "user-1", Visibility: domain.VisibilityPrivate})
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetCuration_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetCuration(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateCuration_VersionCheck(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := insertTestCuration(t, s, "cur-1", "user-1", domain.VisibilityPrivate)

	stale := *c

	c.Title = "Renamed"
	if err := s.UpdateCuration(ctx, c); err != nil {
		t.Fatalf("UpdateCuration: %v", err)
	}
	if c.Version != 2 {
		t.Errorf("Version = %d, want 2", c.Version)
	}

	stale.Title = "Lost update"
	err := s.UpdateCuration(ctx, &stale)
	if !errors.Is(err, store.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	got, _ := s.GetCuration(ctx, "cur-1")
	if got.Title != "Renamed" {
		t.Errorf("Title = %q, want Renamed", got.Title)
	}

	missing := &domain.Curation{ID: "missing", Version: 1}
	if err := s.UpdateCuration(ctx, missing); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateCover(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := insertTestCuration(t, s, "cur-1", "user-1", domain.VisibilityPublic)

	updated, err := s.UpdateCover(ctx, c.ID, domain.CoverUpdate{
		URL:             strPtr("https://cdn.example.com/curation-covers/cur-1-abc.jpg"),
		Path:            strPtr("curation-covers/cur-1-abc.jpg"),
		BlurHash:        strPtr("LEHV6nWB2yk8pyo0adR*.7kCMdnj"),
		ExpectedVersion: c.Version,
	})
	if err != nil {
		t.Fatalf("UpdateCover: %v", err)
	}
	if updated.Version != c.Version+1 {
		t.Errorf("Version = %d, want %d", updated.Version, c.Version+1)
	}
	ref, ok := updated.CoverRef()
	if !ok || ref.Path != "curation-covers/cur-1-abc.jpg" {
		t.Errorf("CoverRef = %+v, %v", ref, ok)
	}

	// A writer that read the old version loses.
	_, err = s.UpdateCover(ctx, c.ID, domain.CoverUpdate{
		URL:             strPtr("https://cdn.example.com/curation-covers/cur-1-def.jpg"),
		Path:            strPtr("curation-covers/cur-1-def.jpg"),
		ExpectedVersion: c.Version,
	})
	if !errors.Is(err, store.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	// Clearing the cover.
	cleared, err := s.UpdateCover(ctx, c.ID, domain.CoverUpdate{ExpectedVersion: updated.Version})
	if err != nil {
		t.Fatalf("clear cover: %v", err)
	}
	if cleared.HasCover() || cleared.CoverImagePath != nil || cleared.CoverBlurHash != nil {
		t.Errorf("expected cleared cover, got %+v", cleared)
	}
}

func TestUpdateCover_PathReferencedOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := insertTestCuration(t, s, "cur-a", "user-1", domain.VisibilityPublic)
	b := insertTestCuration(t, s, "cur-b", "user-1", domain.VisibilityPublic)

	path := "curation-covers/shared.jpg"
	if _, err := s.UpdateCover(ctx, a.ID, domain.CoverUpdate{URL: strPtr("u"), Path: &path, ExpectedVersion: a.Version}); err != nil {
		t.Fatalf("UpdateCover a: %v", err)
	}
	_, err := s.UpdateCover(ctx, b.ID, domain.CoverUpdate{URL: strPtr("u"), Path: &path, ExpectedVersion: b.Version})
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestListCoverRefs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	withPath := insertTestCuration(t, s, "cur-1", "user-1", domain.VisibilityPublic)
	legacy := insertTestCuration(t, s, "cur-2", "user-1", domain.VisibilityPublic)
	insertTestCuration(t, s, "cur-3", "user-1", domain.VisibilityPublic)

	if _, err := s.UpdateCover(ctx, withPath.ID, domain.CoverUpdate{
		URL: strPtr("https://x/curation-covers/a.jpg"), Path: strPtr("curation-covers/a.jpg"), ExpectedVersion: 1,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpdateCover(ctx, legacy.ID, domain.CoverUpdate{
		URL: strPtr("https://x/curation-covers/b.jpg"), ExpectedVersion: 1,
	}); err != nil {
		t.Fatal(err)
	}

	refs, err := s.ListCoverRefs(ctx)
	if err != nil {
		t.Fatalf("ListCoverRefs: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected 2 refs, got %d", len(refs))
	}
	byID := map[string]domain.CoverRef{}
	for _, r := range refs {
		byID[r.CurationID] = r
	}
	if byID["cur-1"].Path != "curation-covers/a.jpg" {
		t.Errorf("cur-1 path = %q", byID["cur-1"].Path)
	}
	if byID["cur-2"].Path != "" || byID["cur-2"].URL != "https://x/curation-covers/b.jpg" {
		t.Errorf("cur-2 ref = %+v", byID["cur-2"])
	}
}

func TestListCurations_Pagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := range 5 {
		insertTestCuration(t, s, fmt.Sprintf("pub-%d", i), "user-1", domain.VisibilityPublic)
	}
	insertTestCuration(t, s, "priv-1", "user-1", domain.VisibilityPrivate)
	insertTestCuration(t, s, "other-1", "user-2", domain.VisibilityPublic)

	page, err := s.ListPublicCurations(ctx, store.PaginationParams{Limit: 4})
	if err != nil {
		t.Fatalf("ListPublicCurations: %v", err)
	}
	if len(page.Items) != 4 || !page.HasMore || page.NextCursor == "" {
		t.Fatalf("first page: %d items, hasMore=%v, cursor=%q", len(page.Items), page.HasMore, page.NextCursor)
	}

	page2, err := s.ListPublicCurations(ctx, store.PaginationParams{Limit: 4, Cursor: page.NextCursor})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(page2.Items) != 2 || page2.HasMore {
		t.Fatalf("second page: %d items, hasMore=%v", len(page2.Items), page2.HasMore)
	}
	for _, c := range append(page.Items, page2.Items...) {
		if c.Visibility != domain.VisibilityPublic {
			t.Errorf("private curation %s listed publicly", c.ID)
		}
	}

	mine, err := s.ListCurationsByOwner(ctx, "user-1", store.PaginationParams{})
	if err != nil {
		t.Fatalf("ListCurationsByOwner: %v", err)
	}
	if len(mine.Items) != 6 {
		t.Errorf("expected 6 owned curations, got %d", len(mine.Items))
	}

	if _, err := s.ListPublicCurations(ctx, store.PaginationParams{Cursor: "!!not-base64"}); !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for bad cursor, got %v", err)
	}
}

func TestDeleteCuration_CascadesTabs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestCuration(t, s, "cur-1", "user-1", domain.VisibilityPrivate)

	tab := &domain.Tab{CurationID: "cur-1", URL: "https://go.dev", Title: "Go"}
	if err := s.CreateTab(ctx, tab); err != nil {
		t.Fatalf("CreateTab: %v", err)
	}

	if err := s.DeleteCuration(ctx, "cur-1"); err != nil {
		t.Fatalf("DeleteCuration: %v", err)
	}
	if _, err := s.GetTab(ctx, tab.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected tab removed with curation, got %v", err)
	}
	if err := s.DeleteCuration(ctx, "cur-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestIncrementViewsAndLikes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestCuration(t, s, "cur-1", "owner", domain.VisibilityPublic)

	for range 3 {
		if err := s.IncrementViews(ctx, "cur-1"); err != nil {
			t.Fatalf("IncrementViews: %v", err)
		}
	}

	if n, err := s.SetLike(ctx, "cur-1", "u1", true); err != nil || n != 1 {
		t.Fatalf("like u1: n=%d err=%v", n, err)
	}
	// Liking twice is idempotent.
	if n, err := s.SetLike(ctx, "cur-1", "u1", true); err != nil || n != 1 {
		t.Fatalf("like u1 again: n=%d err=%v", n, err)
	}
	if n, err := s.SetLike(ctx, "cur-1", "u2", true); err != nil || n != 2 {
		t.Fatalf("like u2: n=%d err=%v", n, err)
	}
	if n, err := s.SetLike(ctx, "cur-1", "u1", false); err != nil || n != 1 {
		t.Fatalf("unlike u1: n=%d err=%v", n, err)
	}

	got, _ := s.GetCuration(ctx, "cur-1")
	if got.ViewCount != 3 || got.LikeCount != 1 {
		t.Errorf("views=%d likes=%d, want 3 and 1", got.ViewCount, got.LikeCount)
	}
	if got.Version != 1 {
		t.Errorf("counters must not bump version, got %d", got.Version)
	}

	if err := s.IncrementViews(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.SetLike(ctx, "missing", "u1", true); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
