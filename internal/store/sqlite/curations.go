package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tabsverse/tabsverse-server/internal/domain"
	"github.com/tabsverse/tabsverse-server/internal/id"
	"github.com/tabsverse/tabsverse-server/internal/store"
)

const curationColumns = `id, owner_id, title, description, visibility,
	cover_image_url, cover_image_path, cover_blurhash, tags,
	view_count, like_count, tab_count, version, created_at, updated_at`

func scanCuration(scanner interface{ Scan(dest ...any) error }) (*domain.Curation, error) {
	var c domain.Curation

	var (
		visibility string
		coverURL   sql.NullString
		coverPath  sql.NullString
		blurHash   sql.NullString
		tags       string
		createdAt  string
		updatedAt  string
	)

	err := scanner.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Title,
		&c.Description,
		&visibility,
		&coverURL,
		&coverPath,
		&blurHash,
		&tags,
		&c.ViewCount,
		&c.LikeCount,
		&c.TabCount,
		&c.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Visibility = domain.Visibility(visibility)
	c.CoverImageURL = stringPtr(coverURL)
	c.CoverImagePath = stringPtr(coverPath)
	c.CoverBlurHash = stringPtr(blurHash)

	if c.Tags, err = decodeTags(tags); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &c, nil
}

// CreateCuration inserts a new curation at version 1.
func (s *Store) CreateCuration(ctx context.Context, c *domain.Curation) error {
	if c.ID == "" {
		c.ID = id.NewUUID()
	}
	if c.CreatedAt.IsZero() {
		c.InitTimestamps()
	}
	c.Version = 1

	tags, err := encodeTags(c.Tags)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO curations (`+curationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.OwnerID,
		c.Title,
		c.Description,
		string(c.Visibility),
		nullableString(c.CoverImageURL),
		nullableString(c.CoverImagePath),
		nullableString(c.CoverBlurHash),
		tags,
		c.ViewCount,
		c.LikeCount,
		c.TabCount,
		c.Version,
		formatTime(c.CreatedAt),
		formatTime(c.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithCause(err)
	}
	if err != nil {
		return fmt.Errorf("insert curation: %w", err)
	}
	return nil
}

// GetCuration retrieves a curation by ID.
func (s *Store) GetCuration(ctx context.Context, id string) (*domain.Curation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+curationColumns+` FROM curations WHERE id = ?`, id)

	c, err := scanCuration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get curation: %w", err)
	}
	return c, nil
}

// UpdateCuration writes the editable fields under a version check.
func (s *Store) UpdateCuration(ctx context.Context, c *domain.Curation) error {
	tags, err := encodeTags(c.Tags)
	if err != nil {
		return err
	}
	c.Touch()

	result, err := s.db.ExecContext(ctx, `
		UPDATE curations SET
			title = ?, description = ?, visibility = ?, tags = ?,
			updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		c.Title,
		c.Description,
		string(c.Visibility),
		tags,
		formatTime(c.UpdatedAt),
		c.ID,
		c.Version,
	)
	if err != nil {
		return fmt.Errorf("update curation: %w", err)
	}
	if err := s.checkVersionedWrite(ctx, result, c.ID, c.Version); err != nil {
		return err
	}
	c.Version++
	return nil
}

// checkVersionedWrite distinguishes a missing row from a stale version when
// a guarded UPDATE touched nothing.
func (s *Store) checkVersionedWrite(ctx context.Context, result sql.Result, id string, expected int) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	var current int
	err = s.db.QueryRowContext(ctx, `SELECT version FROM curations WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	return store.ErrVersionConflict.WithCause(fmt.Errorf("expected version %d, found %d", expected, current))
}

// DeleteCuration removes a curation. Tabs and likes cascade via foreign keys.
func (s *Store) DeleteCuration(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM curations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete curation: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListCurationsByOwner returns an owner's curations, most recently updated first.
func (s *Store) ListCurationsByOwner(ctx context.Context, ownerID string, params store.PaginationParams) (*store.PaginatedResult[*domain.Curation], error) {
	return s.listCurations(ctx, `owner_id = ?`, ownerID, params)
}

// ListPublicCurations returns public curations, most recently updated first.
func (s *Store) ListPublicCurations(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Curation], error) {
	return s.listCurations(ctx, `visibility = ?`, string(domain.VisibilityPublic), params)
}

func (s *Store) listCurations(ctx context.Context, where string, arg any, params store.PaginationParams) (*store.PaginatedResult[*domain.Curation], error) {
	params.Validate()
	offset, err := params.Offset()
	if err != nil {
		return nil, store.ErrInvalidInput.WithCause(err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+curationColumns+` FROM curations WHERE `+where+`
		ORDER BY updated_at DESC, id LIMIT ? OFFSET ?`,
		arg, params.Limit+1, offset)
	if err != nil {
		return nil, fmt.Errorf("list curations: %w", err)
	}
	defer rows.Close()

	var curations []*domain.Curation
	for rows.Next() {
		c, err := scanCuration(rows)
		if err != nil {
			return nil, err
		}
		curations = append(curations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return store.Paginate(curations, params, offset), nil
}

// ListCoverRefs returns every curation that references a cover image.
func (s *Store) ListCoverRefs(ctx context.Context) ([]domain.CoverRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cover_image_url, cover_image_path FROM curations
		WHERE cover_image_url IS NOT NULL AND cover_image_url != ''`)
	if err != nil {
		return nil, fmt.Errorf("list cover refs: %w", err)
	}
	defer rows.Close()

	var refs []domain.CoverRef
	for rows.Next() {
		var (
			ref  domain.CoverRef
			path sql.NullString
		)
		if err := rows.Scan(&ref.CurationID, &ref.URL, &path); err != nil {
			return nil, err
		}
		ref.Path = path.String
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// UpdateCover sets or clears the cover under a version check.
func (s *Store) UpdateCover(ctx context.Context, id string, update domain.CoverUpdate) (*domain.Curation, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE curations SET
			cover_image_url = ?, cover_image_path = ?, cover_blurhash = ?,
			updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		nullableString(update.URL),
		nullableString(update.Path),
		nullableString(update.BlurHash),
		formatTime(time.Now()),
		id,
		update.ExpectedVersion,
	)
	if isUniqueViolation(err) {
		return nil, store.ErrAlreadyExists.WithCause(err)
	}
	if err != nil {
		return nil, fmt.Errorf("update cover: %w", err)
	}
	if err := s.checkVersionedWrite(ctx, result, id, update.ExpectedVersion); err != nil {
		return nil, err
	}
	return s.GetCuration(ctx, id)
}

// IncrementViews bumps the view counter without touching the version.
func (s *Store) IncrementViews(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE curations SET view_count = view_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SetLike records or removes a like and recomputes the counter.
func (s *Store) SetLike(ctx context.Context, curationID, userID string, liked bool) (int, error) {
	var count int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM curations WHERE id = ?`, curationID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}

		if liked {
			_, err = tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO curation_likes (curation_id, user_id, created_at) VALUES (?, ?, ?)`,
				curationID, userID, formatTime(time.Now()))
		} else {
			_, err = tx.ExecContext(ctx,
				`DELETE FROM curation_likes WHERE curation_id = ? AND user_id = ?`, curationID, userID)
		}
		if err != nil {
			return fmt.Errorf("write like: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE curations SET like_count =
				(SELECT COUNT(*) FROM curation_likes WHERE curation_id = ?)
			WHERE id = ?`, curationID, curationID); err != nil {
			return fmt.Errorf("recount likes: %w", err)
		}

		return tx.QueryRowContext(ctx, `SELECT like_count FROM curations WHERE id = ?`, curationID).Scan(&count)
	})
	return count, err
}
