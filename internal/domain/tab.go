package domain

import "time"

// ResourceType classifies what a saved link points at.
type ResourceType string

// Resource types.
const (
	ResourceWebpage  ResourceType = "webpage"
	ResourcePDF      ResourceType = "pdf"
	ResourceVideo    ResourceType = "video"
	ResourceImage    ResourceType = "image"
	ResourceDocument ResourceType = "document"
)

// Valid reports whether r is one of the five resource types.
func (r ResourceType) Valid() bool {
	switch r {
	case ResourceWebpage, ResourcePDF, ResourceVideo, ResourceImage, ResourceDocument:
		return true
	}
	return false
}

// Tab is a single saved link within a curation. Thumbnail and favicon are
// populated by metadata extraction and may be nil.
type Tab struct {
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Description  *string      `json:"description"`
	ThumbnailURL *string      `json:"thumbnail_url"`
	FaviconURL   *string      `json:"favicon_url"`
	ID           string       `json:"id"`
	CurationID   string       `json:"curation_id"`
	URL          string       `json:"url"`
	Title        string       `json:"title"`
	Notes        string       `json:"notes"`
	ResourceType ResourceType `json:"resource_type"`
	Tags         []string     `json:"tags"`
	Position     int          `json:"position"`
	ClickCount   int          `json:"click_count"`
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
func (t *Tab) InitTimestamps() {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
}

// Touch updates the UpdatedAt timestamp.
func (t *Tab) Touch() {
	t.UpdatedAt = time.Now().UTC()
}

// ApplyMetadata fills fields the user left empty from extracted metadata.
func (t *Tab) ApplyMetadata(m *URLMetadata) {
	if t.Title == "" {
		t.Title = m.Title
	}
	if t.Description == nil {
		t.Description = m.Description
	}
	if t.ThumbnailURL == nil {
		t.ThumbnailURL = m.ThumbnailURL
	}
	if t.FaviconURL == nil {
		t.FaviconURL = m.FaviconURL
	}
	if t.ResourceType == "" {
		t.ResourceType = m.ResourceType
	}
	if len(t.Tags) == 0 {
		t.Tags = m.Tags
	}
}

// TabPatch carries the fields that may change on an existing tab.
type TabPatch struct {
	Title        *string       `json:"title,omitempty"`
	Description  *string       `json:"description,omitempty"`
	Notes        *string       `json:"notes,omitempty"`
	ResourceType *ResourceType `json:"resource_type,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
}

// Apply copies set fields onto t.
func (p TabPatch) Apply(t *Tab) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = p.Description
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.ResourceType != nil {
		t.ResourceType = *p.ResourceType
	}
	if p.Tags != nil {
		t.Tags = p.Tags
	}
}
