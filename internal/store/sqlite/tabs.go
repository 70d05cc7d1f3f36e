package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tabsverse/tabsverse-server/internal/domain"
	"github.com/tabsverse/tabsverse-server/internal/id"
	"github.com/tabsverse/tabsverse-server/internal/store"
)

const tabColumns = `id, curation_id, url, title, description, thumbnail_url, favicon_url,
	resource_type, position, tags, notes, click_count, created_at, updated_at`

func scanTab(scanner interface{ Scan(dest ...any) error }) (*domain.Tab, error) {
	var t domain.Tab

	var (
		description  sql.NullString
		thumbnailURL sql.NullString
		faviconURL   sql.NullString
		resourceType string
		tags         string
		createdAt    string
		updatedAt    string
	)

	err := scanner.Scan(
		&t.ID,
		&t.CurationID,
		&t.URL,
		&t.Title,
		&description,
		&thumbnailURL,
		&faviconURL,
		&resourceType,
		&t.Position,
		&tags,
		&t.Notes,
		&t.ClickCount,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Description = stringPtr(description)
	t.ThumbnailURL = stringPtr(thumbnailURL)
	t.FaviconURL = stringPtr(faviconURL)
	t.ResourceType = domain.ResourceType(resourceType)

	if t.Tags, err = decodeTags(tags); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &t, nil
}

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
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var next int
		err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(position), -1) + 1 FROM tabs WHERE curation_id = ?`,
			t.CurationID).Scan(&next)
		if err != nil {
			return fmt.Errorf("next position: %w", err)
		}
		t.Position = next

		result, err := tx.ExecContext(ctx,
			`UPDATE curations SET tab_count = tab_count + 1 WHERE id = ?`, t.CurationID)
		if err != nil {
			return fmt.Errorf("bump tab count: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return store.ErrNotFound
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO tabs (`+tabColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID,
			t.CurationID,
			t.URL,
			t.Title,
			nullableString(t.Description),
			nullableString(t.ThumbnailURL),
			nullableString(t.FaviconURL),
			string(t.ResourceType),
			t.Position,
			tags,
			t.Notes,
			t.ClickCount,
			formatTime(t.CreatedAt),
			formatTime(t.UpdatedAt),
		)
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithCause(err)
		}
		if err != nil {
			return fmt.Errorf("insert tab: %w", err)
		}
		return nil
	})
}

// GetTab retrieves a tab by ID.
func (s *Store) GetTab(ctx context.Context, id string) (*domain.Tab, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+tabColumns+` FROM tabs WHERE id = ?`, id)

	t, err := scanTab(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tab: %w", err)
	}
	return t, nil
}

// UpdateTab writes a tab's editable fields.
func (s *Store) UpdateTab(ctx context.Context, t *domain.Tab) error {
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return err
	}
	t.Touch()

	result, err := s.db.ExecContext(ctx, `
		UPDATE tabs SET
			url = ?, title = ?, description = ?, thumbnail_url = ?, favicon_url = ?,
			resource_type = ?, tags = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		t.URL,
		t.Title,
		nullableString(t.Description),
		nullableString(t.ThumbnailURL),
		nullableString(t.FaviconURL),
		string(t.ResourceType),
		tags,
		t.Notes,
		formatTime(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("update tab: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteTab removes a tab and decrements its curation's tab counter.
func (s *Store) DeleteTab(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var curationID string
		err := tx.QueryRowContext(ctx, `SELECT curation_id FROM tabs WHERE id = ?`, id).Scan(&curationID)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM tabs WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete tab: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE curations SET tab_count = MAX(tab_count - 1, 0) WHERE id = ?`, curationID)
		return err
	})
}

// ListTabs returns a curation's tabs ordered by position.
func (s *Store) ListTabs(ctx context.Context, curationID string) ([]*domain.Tab, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tabColumns+` FROM tabs WHERE curation_id = ? ORDER BY position, created_at`, curationID)
	if err != nil {
		return nil, fmt.Errorf("list tabs: %w", err)
	}
	defer rows.Close()

	tabs := []*domain.Tab{}
	for rows.Next() {
		t, err := scanTab(rows)
		if err != nil {
			return nil, err
		}
		tabs = append(tabs, t)
	}
	return tabs, rows.Err()
}

// ReorderTabs rewrites positions to follow tabIDs, which must name every tab
// of the curation exactly once.
func (s *Store) ReorderTabs(ctx context.Context, curationID string, tabIDs []string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM tabs WHERE curation_id = ?`, curationID).Scan(&count); err != nil {
			return err
		}
		if count != len(tabIDs) {
			return store.ErrInvalidInput.WithCause(
				fmt.Errorf("order lists %d tabs, curation has %d", len(tabIDs), count))
		}

		for pos, tabID := range tabIDs {
			result, err := tx.ExecContext(ctx,
				`UPDATE tabs SET position = ? WHERE id = ? AND curation_id = ?`, pos, tabID, curationID)
			if err != nil {
				return fmt.Errorf("set position: %w", err)
			}
			if n, _ := result.RowsAffected(); n == 0 {
				return store.ErrInvalidInput.WithCause(fmt.Errorf("tab %s is not in curation %s", tabID, curationID))
			}
		}
		return nil
	})
}

// IncrementClicks bumps a tab's click counter.
func (s *Store) IncrementClicks(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE tabs SET click_count = click_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("increment clicks: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}
