package domain

import "time"

// Visibility controls who can see a curation.
type Visibility string

// Visibility values.
const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	return v == VisibilityPrivate || v == VisibilityPublic
}

// Curation is a user-owned, named collection of saved links (tabs).
// A curation references at most one cover image. The canonical storage path
// is stored beside the public URL so storage reconciliation never has to
// reverse-parse URLs.
type Curation struct {
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CoverImageURL  *string    `json:"cover_image_url"`
	CoverImagePath *string    `json:"cover_image_path,omitempty"`
	CoverBlurHash  *string    `json:"cover_blurhash,omitempty"`
	ID             string     `json:"id"`
	OwnerID        string     `json:"owner_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Visibility     Visibility `json:"visibility"`
	Tags           []string   `json:"tags"`
	ViewCount      int        `json:"view_count"`
	LikeCount      int        `json:"like_count"`
	TabCount       int        `json:"tab_count"`
	// Version increments on every write and guards cover replacement
	// against concurrent edits.
	Version int `json:"version"`
}

// IsPublic reports whether anyone may view the curation.
func (c *Curation) IsPublic() bool {
	return c.Visibility == VisibilityPublic
}

// CanView reports whether userID may read the curation. An empty userID is anonymous.
func (c *Curation) CanView(userID string) bool {
	return c.IsPublic() || (userID != "" && userID == c.OwnerID)
}

// CanEdit reports whether userID may mutate the curation.
func (c *Curation) CanEdit(userID string) bool {
	return userID != "" && userID == c.OwnerID
}

// HasCover reports whether a cover image is referenced.
func (c *Curation) HasCover() bool {
	return c.CoverImageURL != nil && *c.CoverImageURL != ""
}

// CoverRef returns the curation's cover reference, or false if it has none.
func (c *Curation) CoverRef() (CoverRef, bool) {
	if !c.HasCover() {
		return CoverRef{}, false
	}
	ref := CoverRef{CurationID: c.ID, URL: *c.CoverImageURL}
	if c.CoverImagePath != nil {
		ref.Path = *c.CoverImagePath
	}
	return ref, true
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
func (c *Curation) InitTimestamps() {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
}

// Touch updates the UpdatedAt timestamp.
func (c *Curation) Touch() {
	c.UpdatedAt = time.Now().UTC()
}

// CoverRef is the cover reference held by one curation row.
// Path is empty for rows written before canonical paths were stored.
type CoverRef struct {
	CurationID string `json:"curation_id"`
	URL        string `json:"url"`
	Path       string `json:"path,omitempty"`
}

// CoverUpdate is a cover change persisted under an optimistic version check.
// Nil URL clears the cover.
type CoverUpdate struct {
	URL             *string
	Path            *string
	BlurHash        *string
	ExpectedVersion int
}

// CurationPatch carries the fields an owner may change. Nil fields are left untouched.
type CurationPatch struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Visibility  *Visibility `json:"visibility,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
}

// Apply copies set fields onto c.
func (p CurationPatch) Apply(c *Curation) {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Visibility != nil {
		c.Visibility = *p.Visibility
	}
	if p.Tags != nil {
		c.Tags = p.Tags
	}
}
