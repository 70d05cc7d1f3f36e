package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabsverse/tabsverse-server/internal/domain"
	"github.com/tabsverse/tabsverse-server/internal/logger"
	"github.com/tabsverse/tabsverse-server/internal/store"
)

// newTestStore connects to the database named by TABSVERSE_TEST_POSTGRES_DSN
// and isolates the test by truncating all tables.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TABSVERSE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TABSVERSE_TEST_POSTGRES_DSN not set")
	}

	s, err := Open(dsn, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, s.db.Exec("TRUNCATE curation_likes, tabs, curations").Error)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRowConversion_RoundTrip(t *testing.T) {
	url := "https://cdn.example.com/curation-covers/a.jpg"
	path := "curation-covers/a.jpg"
	now := time.Now().UTC()

	c := &domain.Curation{
		ID:             "cur-1",
		OwnerID:        "user-1",
		Title:          "Reading",
		Visibility:     domain.VisibilityPublic,
		CoverImageURL:  &url,
		CoverImagePath: &path,
		Version:        3,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	row := curationToRow(c)
	assert.Equal(t, []string{}, row.Tags, "nil tags are stored as an empty list")

	back := row.toDomain()
	assert.Equal(t, c.ID, back.ID)
	assert.Equal(t, c.Version, back.Version)
	assert.Equal(t, path, *back.CoverImagePath)
	assert.Equal(t, []string{}, back.Tags)

	tab := &domain.Tab{ID: "tab-1", CurationID: "cur-1", URL: "https://go.dev", ResourceType: domain.ResourcePDF}
	assert.Equal(t, domain.ResourcePDF, tabToRow(tab).toDomain().ResourceType)
}

func TestEncodeTags(t *testing.T) {
	got, err := encodeTags(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", got)

	got, err = encodeTags([]string{"go", "web"})
	require.NoError(t, err)
	assert.Equal(t, `["go","web"]`, got)
}

func TestCurationLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := &domain.Curation{OwnerID: "user-1", Title: "Go", Visibility: domain.VisibilityPublic, Tags: []string{"go"}}
	require.NoError(t, s.CreateCuration(ctx, c))
	assert.Equal(t, 1, c.Version)

	err := s.CreateCuration(ctx, &domain.Curation{ID: c.ID, OwnerID: "user-1", Visibility: domain.VisibilityPublic})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	stale := *c
	c.Title = "Go, updated"
	require.NoError(t, s.UpdateCuration(ctx, c))
	assert.Equal(t, 2, c.Version)
	assert.ErrorIs(t, s.UpdateCuration(ctx, &stale), store.ErrVersionConflict)

	url, path := "https://x/curation-covers/a.jpg", "curation-covers/a.jpg"
	updated, err := s.UpdateCover(ctx, c.ID, domain.CoverUpdate{URL: &url, Path: &path, ExpectedVersion: c.Version})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Version)
	assert.Equal(t, []string{"go"}, updated.Tags)

	_, err = s.UpdateCover(ctx, c.ID, domain.CoverUpdate{ExpectedVersion: c.Version})
	assert.ErrorIs(t, err, store.ErrVersionConflict)

	refs, err := s.ListCoverRefs(ctx)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, path, refs[0].Path)

	n, err := s.SetLike(ctx, c.ID, "u1", true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = s.SetLike(ctx, c.ID, "u1", true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.IncrementViews(ctx, c.ID))
	require.NoError(t, s.DeleteCuration(ctx, c.ID))
	_, err = s.GetCuration(ctx, c.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTabsLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := &domain.Curation{OwnerID: "user-1", Title: "Tabs", Visibility: domain.VisibilityPrivate}
	require.NoError(t, s.CreateCuration(ctx, c))

	var ids []string
	for i := range 3 {
		tab := &domain.Tab{CurationID: c.ID, URL: fmt.Sprintf("https://example.com/%d", i)}
		require.NoError(t, s.CreateTab(ctx, tab))
		assert.Equal(t, i, tab.Position)
		ids = append(ids, tab.ID)
	}

	require.NoError(t, s.ReorderTabs(ctx, c.ID, []string{ids[2], ids[0], ids[1]}))
	tabs, err := s.ListTabs(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, tabs, 3)
	assert.Equal(t, ids[2], tabs[0].ID)

	assert.ErrorIs(t, s.ReorderTabs(ctx, c.ID, ids[:1]), store.ErrInvalidInput)

	require.NoError(t, s.IncrementClicks(ctx, ids[0]))
	require.NoError(t, s.DeleteTab(ctx, ids[1]))

	got, err := s.GetCuration(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TabCount)

	err = s.CreateTab(ctx, &domain.Tab{CurationID: "missing", URL: "https://x"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}
