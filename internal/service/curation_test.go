package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabsverse/tabsverse-server/internal/domain"
	domainerrors "github.com/tabsverse/tabsverse-server/internal/errors"
	"github.com/tabsverse/tabsverse-server/internal/logger"
	"github.com/tabsverse/tabsverse-server/internal/search"
	"github.com/tabsverse/tabsverse-server/internal/store"
	"github.com/tabsverse/tabsverse-server/internal/store/sqlite"
	"github.com/tabsverse/tabsverse-server/internal/validation"
)

type testServices struct {
	store     *sqlite.Store
	blobs     *spyBlobs
	covers    *CoverService
	searcher  *SearchService
	curations *CurationService
	tabs      *TabService
	extractor *fakeExtractor
}

func setupServices(t *testing.T) *testServices {
	t.Helper()

	s := newTestStore(t)
	blobs := newSpyBlobs(t)
	index, err := search.NewSearchIndex(search.Options{Logger: logger.Discard()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() }) //nolint:errcheck // Test cleanup

	v := validation.New()
	covers := NewCoverService(s, blobs, newTestCompressor(), logger.Discard())
	searcher := NewSearchService(index, s, logger.Discard())
	curations := NewCurationService(s, covers, searcher, v, logger.Discard())
	extractor := &fakeExtractor{}
	tabs := NewTabService(s, extractor, curations, v, logger.Discard())

	return &testServices{
		store:     s,
		blobs:     blobs,
		covers:    covers,
		searcher:  searcher,
		curations: curations,
		tabs:      tabs,
		extractor: extractor,
	}
}

func TestCurationService_Create(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	c, err := svc.curations.Create(ctx, "user-1", CreateCurationInput{
		Title:       "  Go reading  ",
		Description: "Articles worth keeping",
		Tags:        []string{"Go", "web design", "go"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "Go reading", c.Title)
	assert.Equal(t, domain.VisibilityPrivate, c.Visibility)
	assert.Equal(t, []string{"go", "web-design"}, c.Tags)
	assert.Equal(t, 1, c.Version)
	assert.False(t, c.HasCover())
}

func TestCurationService_Create_Errors(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		userID   string
		input    CreateCurationInput
		wantCode domainerrors.Code
	}{
		{"anonymous", "", CreateCurationInput{Title: "x"}, domainerrors.CodeUnauthorized},
		{"no title", "user-1", CreateCurationInput{}, domainerrors.CodeValidation},
		{"bad visibility", "user-1", CreateCurationInput{Title: "x", Visibility: "friends"}, domainerrors.CodeValidation},
		{"too many tags", "user-1", CreateCurationInput{Title: "x", Tags: []string{"a", "b", "c", "d", "e", "f", "g"}}, domainerrors.CodeValidation},
		{"foreign cover", "user-1", CreateCurationInput{Title: "x", CoverPath: "avatars/me.jpg"}, domainerrors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.curations.Create(ctx, tt.userID, tt.input)
			require.Error(t, err)
			requireCode(t, err, tt.wantCode)
		})
	}
}

func TestCurationService_Create_WithUploadedCover(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	upload, err := svc.covers.Upload(ctx, UploadInput{Data: pngBytes(t, 100, 100)})
	require.NoError(t, err)

	c, err := svc.curations.Create(ctx, "user-1", CreateCurationInput{Title: "With cover", CoverPath: upload.Path})
	require.NoError(t, err)
	require.True(t, c.HasCover())
	assert.Equal(t, upload.URL, *c.CoverImageURL)
	assert.Equal(t, upload.Path, *c.CoverImagePath)

	// The same object cannot back a second curation.
	_, err = svc.curations.Create(ctx, "user-1", CreateCurationInput{Title: "Copy", CoverPath: upload.Path})
	requireCode(t, err, domainerrors.CodeAlreadyExists)
}

func TestCurationService_GetVisibility(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	private, err := svc.curations.Create(ctx, "owner", CreateCurationInput{Title: "Secret"})
	require.NoError(t, err)
	public, err := svc.curations.Create(ctx, "owner", CreateCurationInput{Title: "Open", Visibility: "public"})
	require.NoError(t, err)

	_, err = svc.curations.Get(ctx, private.ID, "owner")
	assert.NoError(t, err)
	_, err = svc.curations.Get(ctx, private.ID, "someone")
	requireCode(t, err, domainerrors.CodeNotFound)
	_, err = svc.curations.Get(ctx, private.ID, "")
	requireCode(t, err, domainerrors.CodeNotFound)

	_, err = svc.curations.Get(ctx, public.ID, "")
	assert.NoError(t, err)
	_, err = svc.curations.Get(ctx, "missing", "owner")
	requireCode(t, err, domainerrors.CodeNotFound)
}

func TestCurationService_Update(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	c, err := svc.curations.Create(ctx, "owner", CreateCurationInput{Title: "Before", Visibility: "public"})
	require.NoError(t, err)

	title := "After"
	private := "private"
	updated, err := svc.curations.Update(ctx, c.ID, "owner", UpdateCurationInput{
		Title:      &title,
		Visibility: &private,
		Tags:       []string{"Rust"},
		Version:    c.Version,
	})
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Title)
	assert.Equal(t, domain.VisibilityPrivate, updated.Visibility)
	assert.Equal(t, []string{"rust"}, updated.Tags)
	assert.Equal(t, c.Version+1, updated.Version)

	// Stale version.
	_, err = svc.curations.Update(ctx, c.ID, "owner", UpdateCurationInput{Title: &title, Version: c.Version})
	requireCode(t, err, domainerrors.CodeConflict)

	// Not the owner; the curation is private now, so it is hidden.
	_, err = svc.curations.Update(ctx, c.ID, "intruder", UpdateCurationInput{Title: &title})
	requireCode(t, err, domainerrors.CodeNotFound)

	empty := ""
	_, err = svc.curations.Update(ctx, c.ID, "owner", UpdateCurationInput{Title: &empty})
	requireCode(t, err, domainerrors.CodeValidation)
}

func TestCurationService_Update_ForbiddenOnPublic(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	c, err := svc.curations.Create(ctx, "owner", CreateCurationInput{Title: "Open", Visibility: "public"})
	require.NoError(t, err)

	title := "Hijacked"
	_, err = svc.curations.Update(ctx, c.ID, "intruder", UpdateCurationInput{Title: &title})
	requireCode(t, err, domainerrors.CodeForbidden)
}

func TestCurationService_Delete_RemovesCoverAndTabs(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	c, err := svc.curations.Create(ctx, "owner", CreateCurationInput{Title: "Doomed", Visibility: "public"})
	require.NoError(t, err)
	replaced, err := svc.covers.Replace(ctx, ReplaceInput{Data: pngBytes(t, 64, 64), CurationID: c.ID, UserID: "owner"})
	require.NoError(t, err)
	tab, err := svc.tabs.Create(ctx, c.ID, "owner", CreateTabInput{URL: "https://example.com/a"})
	require.NoError(t, err)

	require.NoError(t, svc.curations.Delete(ctx, c.ID, "owner"))

	_, err = svc.store.GetCuration(ctx, c.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = svc.store.GetTab(ctx, tab.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.False(t, svc.blobs.Exists(replaced.Upload.Path))

	count, err := svc.searcher.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCurationService_Lists(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	for _, title := range []string{"one", "two", "three"} {
		_, err := svc.curations.Create(ctx, "owner", CreateCurationInput{Title: title, Visibility: "public"})
		require.NoError(t, err)
	}
	_, err := svc.curations.Create(ctx, "owner", CreateCurationInput{Title: "hidden"})
	require.NoError(t, err)
	_, err = svc.curations.Create(ctx, "other", CreateCurationInput{Title: "theirs", Visibility: "public"})
	require.NoError(t, err)

	mine, err := svc.curations.ListMine(ctx, "owner", store.PaginationParams{})
	require.NoError(t, err)
	assert.Len(t, mine.Items, 4)

	page, err := svc.curations.ListPublic(ctx, store.PaginationParams{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.True(t, page.HasMore)

	next, err := svc.curations.ListPublic(ctx, store.PaginationParams{Limit: 3, Cursor: page.NextCursor})
	require.NoError(t, err)
	assert.Len(t, next.Items, 1)
	assert.False(t, next.HasMore)

	_, err = svc.curations.ListPublic(ctx, store.PaginationParams{Cursor: "%%%"})
	requireCode(t, err, domainerrors.CodeValidation)

	_, err = svc.curations.ListMine(ctx, "", store.PaginationParams{})
	requireCode(t, err, domainerrors.CodeUnauthorized)
}

func TestCurationService_ViewsAndLikes(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	c, err := svc.curations.Create(ctx, "owner", CreateCurationInput{Title: "Popular", Visibility: "public"})
	require.NoError(t, err)

	require.NoError(t, svc.curations.RecordView(ctx, c.ID, ""))
	require.NoError(t, svc.curations.RecordView(ctx, c.ID, "fan"))

	count, err := svc.curations.SetLike(ctx, c.ID, "fan", true)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Liking twice is idempotent.
	count, err = svc.curations.SetLike(ctx, c.ID, "fan", true)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = svc.curations.SetLike(ctx, c.ID, "fan-2", true)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = svc.curations.SetLike(ctx, c.ID, "fan", false)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := svc.curations.Get(ctx, c.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 2, got.ViewCount)
	assert.Equal(t, 1, got.LikeCount)

	_, err = svc.curations.SetLike(ctx, c.ID, "", true)
	requireCode(t, err, domainerrors.CodeUnauthorized)

	private, err := svc.curations.Create(ctx, "owner", CreateCurationInput{Title: "Mine"})
	require.NoError(t, err)
	err = svc.curations.RecordView(ctx, private.ID, "fan")
	requireCode(t, err, domainerrors.CodeNotFound)
}

func TestCurationService_Search(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	public, err := svc.curations.Create(ctx, "owner", CreateCurationInput{
		Title: "Kubernetes operators", Visibility: "public", Tags: []string{"devops"},
	})
	require.NoError(t, err)
	_, err = svc.curations.Create(ctx, "owner", CreateCurationInput{Title: "Kubernetes notes, private"})
	require.NoError(t, err)

	params := search.DefaultSearchParams()
	params.Query = "kubernetes"
	result, err := svc.curations.Search(ctx, params)
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, public.ID, result.Hits[0].ID)

	// Going private removes it from the index.
	private := "private"
	_, err = svc.curations.Update(ctx, public.ID, "owner", UpdateCurationInput{Visibility: &private})
	require.NoError(t, err)

	result, err = svc.curations.Search(ctx, params)
	require.NoError(t, err)
	assert.Empty(t, result.Hits)
}

func TestCurationService_SearchDisabled(t *testing.T) {
	s := newTestStore(t)
	covers := NewCoverService(s, newSpyBlobs(t), newTestCompressor(), logger.Discard())
	curations := NewCurationService(s, covers, nil, validation.New(), logger.Discard())

	c, err := curations.Create(context.Background(), "owner", CreateCurationInput{Title: "No index", Visibility: "public"})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)

	_, err = curations.Search(context.Background(), search.DefaultSearchParams())
	requireCode(t, err, domainerrors.CodeInternal)
}

func TestSearchService_ReindexAll(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	for _, title := range []string{"alpha", "beta"} {
		c := createCuration(t, svc.store, "owner", func(c *domain.Curation) { c.Title = title })
		require.NoError(t, svc.store.CreateTab(ctx, &domain.Tab{CurationID: c.ID, URL: "https://go.dev/doc", Title: "Go docs"}))
	}
	createCuration(t, svc.store, "owner", func(c *domain.Curation) { c.Visibility = domain.VisibilityPrivate })

	// Written straight to the store, so nothing is indexed yet.
	count, err := svc.searcher.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, svc.searcher.ReindexAll(ctx))

	count, err = svc.searcher.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	params := search.DefaultSearchParams()
	params.Domain = "go.dev"
	result, err := svc.searcher.Search(ctx, params)
	require.NoError(t, err)
	assert.Len(t, result.Hits, 2)
}
