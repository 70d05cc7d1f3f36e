package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestCuration_Access(t *testing.T) {
	c := &Curation{OwnerID: "u1", Visibility: VisibilityPrivate}

	assert.True(t, c.CanView("u1"))
	assert.False(t, c.CanView("u2"))
	assert.False(t, c.CanView(""))
	assert.True(t, c.CanEdit("u1"))
	assert.False(t, c.CanEdit(""))

	c.Visibility = VisibilityPublic
	assert.True(t, c.CanView(""))
	assert.False(t, c.CanEdit("u2"))
}

func TestCuration_CoverRef(t *testing.T) {
	c := &Curation{ID: "c1"}
	_, ok := c.CoverRef()
	assert.False(t, ok)

	c.CoverImageURL = strPtr("https://cdn/x.jpg")
	ref, ok := c.CoverRef()
	assert.True(t, ok)
	assert.Equal(t, CoverRef{CurationID: "c1", URL: "https://cdn/x.jpg"}, ref)

	c.CoverImagePath = strPtr("curation-covers/c1-abc.jpg")
	ref, _ = c.CoverRef()
	assert.Equal(t, "curation-covers/c1-abc.jpg", ref.Path)
}

func TestCurationPatch_Apply(t *testing.T) {
	c := &Curation{Title: "Old", Description: "keep", Visibility: VisibilityPrivate}
	public := VisibilityPublic

	CurationPatch{Title: strPtr("New"), Visibility: &public}.Apply(c)

	assert.Equal(t, "New", c.Title)
	assert.Equal(t, "keep", c.Description)
	assert.True(t, c.IsPublic())
}

func TestResourceType_Valid(t *testing.T) {
	for _, rt := range []ResourceType{ResourceWebpage, ResourcePDF, ResourceVideo, ResourceImage, ResourceDocument} {
		assert.True(t, rt.Valid(), rt)
	}
	assert.False(t, ResourceType("audio").Valid())
}

func TestTab_ApplyMetadata(t *testing.T) {
	tab := &Tab{Title: "Mine"}
	tab.ApplyMetadata(&URLMetadata{
		Title:        "Theirs",
		Description:  strPtr("desc"),
		FaviconURL:   strPtr("https://example.com/favicon.ico"),
		ResourceType: ResourceWebpage,
		Tags:         []string{"code"},
	})

	assert.Equal(t, "Mine", tab.Title)
	assert.Equal(t, "desc", *tab.Description)
	assert.Nil(t, tab.ThumbnailURL)
	assert.Equal(t, ResourceWebpage, tab.ResourceType)
	assert.Equal(t, []string{"code"}, tab.Tags)
}
