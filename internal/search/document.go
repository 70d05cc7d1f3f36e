// Package search provides full-text search over public curations using Bleve.
package search

import (
	"strings"

	"github.com/tabsverse/tabsverse-server/internal/domain"
)

// CurationDocument is the indexed form of a public curation.
//
// Tab titles and domains are denormalized into TabText so a search for
// "kubernetes" finds a curation whose own title never mentions it.
type CurationDocument struct {
	ID          string   `json:"id"`
	OwnerID     string   `json:"owner_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	TabText     string   `json:"tab_text,omitempty"`
	Domains     []string `json:"domains,omitempty"`

	LikeCount int `json:"like_count"`
	ViewCount int `json:"view_count"`
	TabCount  int `json:"tab_count"`

	CreatedAt int64 `json:"created_at"` // Unix millis
	UpdatedAt int64 `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map with field names matching the mapping.
func (d *CurationDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"owner_id":   d.OwnerID,
		"title":      d.Title,
		"like_count": d.LikeCount,
		"view_count": d.ViewCount,
		"tab_count":  d.TabCount,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}

	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	if d.TabText != "" {
		m["tab_text"] = d.TabText
	}
	if len(d.Domains) > 0 {
		m["domains"] = d.Domains
	}

	return m
}

// CurationToDocument converts a curation and its tabs to a document.
func CurationToDocument(c *domain.Curation, tabs []*domain.Tab) *CurationDocument {
	doc := &CurationDocument{
		ID:          c.ID,
		OwnerID:     c.OwnerID,
		Title:       c.Title,
		Description: c.Description,
		Tags:        c.Tags,
		LikeCount:   c.LikeCount,
		ViewCount:   c.ViewCount,
		TabCount:    c.TabCount,
		CreatedAt:   c.CreatedAt.UnixMilli(),
		UpdatedAt:   c.UpdatedAt.UnixMilli(),
	}

	var text []string
	seen := make(map[string]bool)
	for _, t := range tabs {
		if t.Title != "" {
			text = append(text, t.Title)
		}
		if host := tabHost(t.URL); host != "" && !seen[host] {
			seen[host] = true
			doc.Domains = append(doc.Domains, host)
		}
	}
	doc.TabText = strings.Join(text, "\n")

	return doc
}

// tabHost extracts the bare host from a tab URL without a full parse.
func tabHost(raw string) string {
	_, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return ""
	}
	host, _, _ := strings.Cut(rest, "/")
	host, _, _ = strings.Cut(host, "?")
	host, _, _ = strings.Cut(host, ":")
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
