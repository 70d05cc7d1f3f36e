// Package postgres implements store.Store on Postgres through gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tabsverse/tabsverse-server/internal/domain"
	"github.com/tabsverse/tabsverse-server/internal/id"
	"github.com/tabsverse/tabsverse-server/internal/store"
)

// Store provides Postgres-backed persistence for curations and tabs.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Open connects to Postgres, configures the pool, and migrates the schema.
func Open(dsn string, logger *slog.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := db.AutoMigrate(&curationRow{}, &tabRow{}, &likeRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("postgres store opened")

	return &Store{db: db, logger: logger}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps gorm errors onto store sentinels.
func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrAlreadyExists.WithCause(err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return store.ErrNotFound.WithCause(err)
	}
	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
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

	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(curationToRow(c)).Error, "insert curation")
}

// GetCuration retrieves a curation by ID.
func (s *Store) GetCuration(ctx context.Context, id string) (*domain.Curation, error) {
	var row curationRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err, "get curation")
	}
	return row.toDomain(), nil
}

// UpdateCuration writes the editable fields under a version check.
func (s *Store) UpdateCuration(ctx context.Context, c *domain.Curation) error {
	c.Touch()
	tags, err := encodeTags(c.Tags)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Model(&curationRow{}).
		Where("id = ? AND version = ?", c.ID, c.Version).
		Updates(map[string]any{
			"title":       c.Title,
			"description": c.Description,
			"visibility":  string(c.Visibility),
			"tags":        tags,
			"updated_at":  c.UpdatedAt,
			"version":     gorm.Expr("version + 1"),
		})
	if err := s.checkVersionedWrite(ctx, result, c.ID, c.Version, "update curation"); err != nil {
		return err
	}
	c.Version++
	return nil
}

// checkVersionedWrite distinguishes a missing row from a stale version when
// a guarded update touched nothing.
func (s *Store) checkVersionedWrite(ctx context.Context, result *gorm.DB, id string, expected int, op string) error {
	if result.Error != nil {
		return translate(result.Error, op)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var row curationRow
	err := s.db.WithContext(ctx).Select("version").Where("id = ?", id).First(&row).Error
	if err != nil {
		return translate(err, "read version")
	}
	return store.ErrVersionConflict.WithCause(fmt.Errorf("expected version %d, found %d", expected, row.Version))
}

// DeleteCuration removes a curation. Tabs and likes cascade via foreign keys.
func (s *Store) DeleteCuration(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&curationRow{})
	if result.Error != nil {
		return translate(result.Error, "delete curation")
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListCurationsByOwner returns an owner's curations, most recently updated first.
func (s *Store) ListCurationsByOwner(ctx context.Context, ownerID string, params store.PaginationParams) (*store.PaginatedResult[*domain.Curation], error) {
	return s.listCurations(ctx, s.db.Where("owner_id = ?", ownerID), params)
}

// ListPublicCurations returns public curations, most recently updated first.
func (s *Store) ListPublicCurations(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Curation], error) {
	return s.listCurations(ctx, s.db.Where("visibility = ?", string(domain.VisibilityPublic)), params)
}

func (s *Store) listCurations(ctx context.Context, scope *gorm.DB, params store.PaginationParams) (*store.PaginatedResult[*domain.Curation], error) {
	params.Validate()
	offset, err := params.Offset()
	if err != nil {
		return nil, store.ErrInvalidInput.WithCause(err)
	}

	var rows []curationRow
	err = scope.WithContext(ctx).
		Order("updated_at DESC, id").
		Limit(params.Limit + 1).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "list curations")
	}

	curations := make([]*domain.Curation, 0, len(rows))
	for i := range rows {
		curations = append(curations, rows[i].toDomain())
	}
	return store.Paginate(curations, params, offset), nil
}

// ListCoverRefs returns every curation that references a cover image.
func (s *Store) ListCoverRefs(ctx context.Context) ([]domain.CoverRef, error) {
	var rows []curationRow
	err := s.db.WithContext(ctx).
		Select("id", "cover_image_url", "cover_image_path").
		Where("cover_image_url IS NOT NULL AND cover_image_url <> ''").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "list cover refs")
	}

	refs := make([]domain.CoverRef, 0, len(rows))
	for _, r := range rows {
		ref := domain.CoverRef{CurationID: r.ID, URL: *r.CoverImageURL}
		if r.CoverImagePath != nil {
			ref.Path = *r.CoverImagePath
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// UpdateCover sets or clears the cover under a version check.
func (s *Store) UpdateCover(ctx context.Context, id string, update domain.CoverUpdate) (*domain.Curation, error) {
	result := s.db.WithContext(ctx).Model(&curationRow{}).
		Where("id = ? AND version = ?", id, update.ExpectedVersion).
		Updates(map[string]any{
			"cover_image_url":  update.URL,
			"cover_image_path": update.Path,
			"cover_blurhash":   update.BlurHash,
			"updated_at":       time.Now().UTC(),
			"version":          gorm.Expr("version + 1"),
		})
	if err := s.checkVersionedWrite(ctx, result, id, update.ExpectedVersion, "update cover"); err != nil {
		return nil, err
	}
	return s.GetCuration(ctx, id)
}

// IncrementViews bumps the view counter without touching the version.
func (s *Store) IncrementViews(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Model(&curationRow{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	if result.Error != nil {
		return translate(result.Error, "increment views")
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SetLike records or removes a like and recomputes the counter.
func (s *Store) SetLike(ctx context.Context, curationID, userID string, liked bool) (int, error) {
	var count int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row curationRow
		if err := tx.Select("id").Where("id = ?", curationID).First(&row).Error; err != nil {
			return translate(err, "get curation")
		}

		var err error
		if liked {
			err = tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&likeRow{CurationID: curationID, UserID: userID, CreatedAt: time.Now().UTC()}).Error
		} else {
			err = tx.Where("curation_id = ? AND user_id = ?", curationID, userID).Delete(&likeRow{}).Error
		}
		if err != nil {
			return translate(err, "write like")
		}

		var n int64
		if err := tx.Model(&likeRow{}).Where("curation_id = ?", curationID).Count(&n).Error; err != nil {
			return translate(err, "count likes")
		}
		count = int(n)

		return translate(tx.Model(&curationRow{}).Where("id = ?", curationID).
			UpdateColumn("like_count", count).Error, "recount likes")
	})
	return count, err
}
