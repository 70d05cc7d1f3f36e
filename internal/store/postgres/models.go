package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tabsverse/tabsverse-server/internal/domain"
)

type curationRow struct {
	ID             string    `gorm:"type:varchar(64);primaryKey"`
	OwnerID        string    `gorm:"type:varchar(64);not null;index:idx_curations_owner,priority:1"`
	Title          string    `gorm:"not null"`
	Description    string    `gorm:"not null;default:''"`
	Visibility     string    `gorm:"type:varchar(16);not null;default:'private';index:idx_curations_visibility,priority:1"`
	CoverImageURL  *string
	CoverImagePath *string   `gorm:"uniqueIndex"`
	CoverBlurHash  *string   `gorm:"column:cover_blurhash"`
	Tags           []string  `gorm:"type:text;serializer:json;not null"`
	ViewCount      int       `gorm:"not null;default:0"`
	LikeCount      int       `gorm:"not null;default:0"`
	TabCount       int       `gorm:"not null;default:0"`
	Version        int       `gorm:"not null;default:1"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null;index:idx_curations_owner,priority:2;index:idx_curations_visibility,priority:2"`

	Tabs  []tabRow  `gorm:"foreignKey:CurationID;constraint:OnDelete:CASCADE"`
	Likes []likeRow `gorm:"foreignKey:CurationID;constraint:OnDelete:CASCADE"`
}

func (curationRow) TableName() string { return "curations" }

type tabRow struct {
	ID           string    `gorm:"type:varchar(64);primaryKey"`
	CurationID   string    `gorm:"type:varchar(64);not null;index:idx_tabs_curation,priority:1"`
	URL          string    `gorm:"not null"`
	Title        string    `gorm:"not null;default:''"`
	Description  *string
	ThumbnailURL *string
	FaviconURL   *string
	ResourceType string    `gorm:"type:varchar(16);not null;default:'webpage'"`
	Position     int       `gorm:"not null;default:0;index:idx_tabs_curation,priority:2"`
	Tags         []string  `gorm:"type:text;serializer:json;not null"`
	Notes        string    `gorm:"not null;default:''"`
	ClickCount   int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (tabRow) TableName() string { return "tabs" }

type likeRow struct {
	CurationID string    `gorm:"type:varchar(64);primaryKey"`
	UserID     string    `gorm:"type:varchar(64);primaryKey"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (likeRow) TableName() string { return "curation_likes" }

func curationToRow(c *domain.Curation) *curationRow {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return &curationRow{
		ID:             c.ID,
		OwnerID:        c.OwnerID,
		Title:          c.Title,
		Description:    c.Description,
		Visibility:     string(c.Visibility),
		CoverImageURL:  c.CoverImageURL,
		CoverImagePath: c.CoverImagePath,
		CoverBlurHash:  c.CoverBlurHash,
		Tags:           tags,
		ViewCount:      c.ViewCount,
		LikeCount:      c.LikeCount,
		TabCount:       c.TabCount,
		Version:        c.Version,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func (r *curationRow) toDomain() *domain.Curation {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return &domain.Curation{
		ID:             r.ID,
		OwnerID:        r.OwnerID,
		Title:          r.Title,
		Description:    r.Description,
		Visibility:     domain.Visibility(r.Visibility),
		CoverImageURL:  r.CoverImageURL,
		CoverImagePath: r.CoverImagePath,
		CoverBlurHash:  r.CoverBlurHash,
		Tags:           tags,
		ViewCount:      r.ViewCount,
		LikeCount:      r.LikeCount,
		TabCount:       r.TabCount,
		Version:        r.Version,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

func tabToRow(t *domain.Tab) *tabRow {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return &tabRow{
		ID:           t.ID,
		CurationID:   t.CurationID,
		URL:          t.URL,
		Title:        t.Title,
		Description:  t.Description,
		ThumbnailURL: t.ThumbnailURL,
		FaviconURL:   t.FaviconURL,
		ResourceType: string(t.ResourceType),
		Position:     t.Position,
		Tags:         tags,
		Notes:        t.Notes,
		ClickCount:   t.ClickCount,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func (r *tabRow) toDomain() *domain.Tab {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return &domain.Tab{
		ID:           r.ID,
		CurationID:   r.CurationID,
		URL:          r.URL,
		Title:        r.Title,
		Description:  r.Description,
		ThumbnailURL: r.ThumbnailURL,
		FaviconURL:   r.FaviconURL,
		ResourceType: domain.ResourceType(r.ResourceType),
		Position:     r.Position,
		Tags:         tags,
		Notes:        r.Notes,
		ClickCount:   r.ClickCount,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

// encodeTags renders tags the way the json serializer stores them, for
// map-based updates that bypass the serializer.
func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}
