package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tabsverse/tabsverse-server/internal/domain"
	"github.com/tabsverse/tabsverse-server/internal/id"
	"github.com/tabsverse/tabsverse-server/internal/store"
)

// CreateTab appends a tab to its curation and bumps the tab counter.
func (s *Store) CreateTab(ctx context.Context, t *domain.Tab) error {
	if t.ID == "" {
		t.ID = id.NewUUID()
	}
	if t.CreatedAt.IsZero() {
		t.InitTimestamps()
	}
	if t.ResourceType == "" {
		t.ResourceType = domain.ResourceWebpage
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the parent row so concurrent appends get distinct positions.
		var parent curationRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").Where("id = ?", t.CurationID).First(&parent).Error
		if err != nil {
			return translate(err, "lock curation")
		}

		var next int
		if err := tx.Model(&tabRow{}).
			Select("COALESCE(MAX(position), -1) + 1").
			Where("curation_id = ?", t.CurationID).
			Scan(&next).Error; err != nil {
			return translate(err, "next position")
		}
		t.Position = next

		if err := tx.Create(tabToRow(t)).Error; err != nil {
			return translate(err, "insert tab")
		}
		return translate(tx.Model(&curationRow{}).Where("id = ?", t.CurationID).
			UpdateColumn("tab_count", gorm.Expr("tab_count + 1")).Error, "bump tab count")
	})
}

// GetTab retrieves a tab by ID.
func (s *Store) GetTab(ctx context.Context, id string) (*domain.Tab, error) {
	var row tabRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err, "get tab")
	}
	return row.toDomain(), nil
}

// UpdateTab writes a tab's editable fields.
func (s *Store) UpdateTab(ctx context.Context, t *domain.Tab) error {
	t.Touch()
	row := tabToRow(t)

	result := s.db.WithContext(ctx).Model(&tabRow{}).
		Where("id = ?", t.ID).
		Select("url", "title", "description", "thumbnail_url", "favicon_url",
			"resource_type", "tags", "notes", "updated_at").
		Updates(row)
	if result.Error != nil {
		return translate(result.Error, "update tab")
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteTab removes a tab and decrements its curation's tab counter.
func (s *Store) DeleteTab(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row tabRow
		if err := tx.Select("id", "curation_id").Where("id = ?", id).First(&row).Error; err != nil {
			return translate(err, "get tab")
		}
		if err := tx.Where("id = ?", id).Delete(&tabRow{}).Error; err != nil {
			return translate(err, "delete tab")
		}
		return translate(tx.Model(&curationRow{}).Where("id = ?", row.CurationID).
			UpdateColumn("tab_count", gorm.Expr("GREATEST(tab_count - 1, 0)")).Error, "drop tab count")
	})
}

// ListTabs returns a curation's tabs ordered by position.
func (s *Store) ListTabs(ctx context.Context, curationID string) ([]*domain.Tab, error) {
	var rows []tabRow
	err := s.db.WithContext(ctx).
		Where("curation_id = ?", curationID).
		Order("position, created_at").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "list tabs")
	}

	tabs := make([]*domain.Tab, 0, len(rows))
	for i := range rows {
		tabs = append(tabs, rows[i].toDomain())
	}
	return tabs, nil
}

// ReorderTabs rewrites positions to follow tabIDs, which must name every tab
// of the curation exactly once.
func (s *Store) ReorderTabs(ctx context.Context, curationID string, tabIDs []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&tabRow{}).Where("curation_id = ?", curationID).Count(&count).Error; err != nil {
			return translate(err, "count tabs")
		}
		if int(count) != len(tabIDs) {
			return store.ErrInvalidInput.WithCause(
				fmt.Errorf("order lists %d tabs, curation has %d", len(tabIDs), count))
		}

		for pos, tabID := range tabIDs {
			result := tx.Model(&tabRow{}).
				Where("id = ? AND curation_id = ?", tabID, curationID).
				UpdateColumn("position", pos)
			if result.Error != nil {
				return translate(result.Error, "set position")
			}
			if result.RowsAffected == 0 {
				return store.ErrInvalidInput.WithCause(fmt.Errorf("tab %s is not in curation %s", tabID, curationID))
			}
		}
		return nil
	})
}

// IncrementClicks bumps a tab's click counter.
func (s *Store) IncrementClicks(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Model(&tabRow{}).
		Where("id = ?", id).
		UpdateColumn("click_count", gorm.Expr("click_count + 1"))
	if result.Error != nil {
		return translate(result.Error, "increment clicks")
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
