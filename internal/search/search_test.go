package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabsverse/tabsverse-server/internal/domain"
)

// setupTestIndex creates a disk-backed index in a temp dir.
func setupTestIndex(t *testing.T) *SearchIndex {
	t.Helper()

	index, err := NewSearchIndex(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return index
}

func seed(t *testing.T, index *SearchIndex) {
	t.Helper()
	now := time.Now()
	docs := []*CurationDocument{
		{
			ID: "c-go", OwnerID: "alice", Title: "Learning Go",
			Description: "Concurrency patterns and tooling",
			Tags:        []string{"golang", "programming"},
			TabText:     "Effective Go\nGo by Example",
			Domains:     []string{"go.dev", "gobyexample.com"},
			LikeCount:   10, UpdatedAt: now.Add(-time.Hour).UnixMilli(),
		},
		{
			ID: "c-k8s", OwnerID: "bob", Title: "Cluster operations",
			Description: "Running workloads in production",
			Tags:        []string{"kubernetes", "devops"},
			TabText:     "Kubernetes the hard way",
			Domains:     []string{"github.com"},
			LikeCount:   3, UpdatedAt: now.UnixMilli(),
		},
		{
			ID: "c-bread", OwnerID: "alice", Title: "Sourdough baking",
			Tags:      []string{"cooking"},
			LikeCount: 25, UpdatedAt: now.Add(-2 * time.Hour).UnixMilli(),
		},
	}
	require.NoError(t, index.IndexCurations(docs))
}

func hitIDs(res *SearchResult) []string {
	ids := make([]string, len(res.Hits))
	for i, h := range res.Hits {
		ids[i] = h.ID
	}
	return ids
}

func TestNewSearchIndex_Empty(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestNewSearchIndex_InMemory(t *testing.T) {
	index, err := NewSearchIndex(Options{})
	require.NoError(t, err)
	defer index.Close()

	require.NoError(t, index.IndexCuration(&CurationDocument{ID: "c1", Title: "Memory"}))
	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestNewSearchIndex_ReopensExisting(t *testing.T) {
	dir := t.TempDir()

	index, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexCuration(&CurationDocument{ID: "c1", Title: "Persisted"}))
	require.NoError(t, index.Close())

	index, err = NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer index.Close()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestSearch_MatchesTitleDescriptionAndTabs(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)
	ctx := context.Background()

	tests := []struct {
		query string
		want  string
	}{
		{"sourdough", "c-bread"},
		{"concurrency", "c-go"},
		{"kubernetes", "c-k8s"},
		{"golang", "c-go"},
	}
	for _, tt := range tests {
		params := DefaultSearchParams()
		params.Query = tt.query
		res, err := index.Search(ctx, params)
		require.NoError(t, err, tt.query)
		require.NotEmpty(t, res.Hits, tt.query)
		assert.Equal(t, tt.want, res.Hits[0].ID, tt.query)
	}
}

func TestSearch_StoredFields(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	params := DefaultSearchParams()
	params.Query = "sourdough"
	res, err := index.Search(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)

	hit := res.Hits[0]
	assert.Equal(t, "Sourdough baking", hit.Title)
	assert.Equal(t, "alice", hit.OwnerID)
	assert.Equal(t, []string{"cooking"}, hit.Tags)
	assert.Equal(t, 25, hit.LikeCount)
	assert.Contains(t, hit.Highlights["title"], "<mark>")
}

func TestSearch_Filters(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)
	ctx := context.Background()

	params := DefaultSearchParams()
	params.OwnerID = "alice"
	res, err := index.Search(ctx, params)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c-go", "c-bread"}, hitIDs(res))

	params = DefaultSearchParams()
	params.Tags = []string{"devops"}
	res, err = index.Search(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, []string{"c-k8s"}, hitIDs(res))

	params = DefaultSearchParams()
	params.Domain = "www.GitHub.com"
	res, err = index.Search(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, []string{"c-k8s"}, hitIDs(res))
}

func TestSearch_Sorting(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)
	ctx := context.Background()

	params := DefaultSearchParams()
	params.SortBy = SortPopular
	res, err := index.Search(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, []string{"c-bread", "c-go", "c-k8s"}, hitIDs(res))

	params.SortBy = SortRecent
	res, err = index.Search(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, []string{"c-k8s", "c-go", "c-bread"}, hitIDs(res))
}

func TestSearch_TagFacets(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	res, err := index.Search(context.Background(), DefaultSearchParams())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), res.Total)

	counts := map[string]int{}
	for _, f := range res.Tags {
		counts[f.Value] = f.Count
	}
	assert.Equal(t, 1, counts["golang"])
	assert.Equal(t, 1, counts["cooking"])
}

func TestSearch_Pagination(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	params := DefaultSearchParams()
	params.SortBy = SortPopular
	params.Limit = 1
	params.Offset = 1
	res, err := index.Search(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), res.Total)
	assert.Equal(t, []string{"c-go"}, hitIDs(res))
}

func TestDeleteCuration(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	require.NoError(t, index.DeleteCuration("c-go"))
	require.NoError(t, index.DeleteCuration("missing"))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestRebuild(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	require.NoError(t, index.Rebuild())

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestCurationToDocument(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	c := &domain.Curation{
		ID: "c1", OwnerID: "u1", Title: "Reading list", Description: "Things",
		Tags: []string{"books"}, LikeCount: 2, TabCount: 3,
		CreatedAt: created, UpdatedAt: created,
	}
	tabs := []*domain.Tab{
		{Title: "First", URL: "https://www.Example.com/a?b=c"},
		{Title: "", URL: "https://example.com:8443/z"},
		{Title: "Third", URL: "http://blog.dev"},
		{Title: "Fourth", URL: "not a url"},
	}

	doc := CurationToDocument(c, tabs)
	assert.Equal(t, "c1", doc.ID)
	assert.Equal(t, "First\nThird\nFourth", doc.TabText)
	assert.Equal(t, []string{"example.com", "blog.dev"}, doc.Domains)
	assert.Equal(t, created.UnixMilli(), doc.CreatedAt)

	m := doc.ToMap()
	assert.Equal(t, "Reading list", m["title"])
	assert.NotContains(t, (&CurationDocument{ID: "x"}).ToMap(), "description")
}
