// Package service holds the Tabsverse business logic: curation and tab
// management, cover image uploads, orphan cleanup, and search indexing.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tabsverse/tabsverse-server/internal/blob"
	"github.com/tabsverse/tabsverse-server/internal/domain"
	domainerrors "github.com/tabsverse/tabsverse-server/internal/errors"
	"github.com/tabsverse/tabsverse-server/internal/id"
	"github.com/tabsverse/tabsverse-server/internal/media/images"
	"github.com/tabsverse/tabsverse-server/internal/store"
)

// UploadInput is a new cover image. CurrentURL, when set, names the object
// being replaced.
type UploadInput struct {
	Data       []byte
	CurationID string
	CurrentURL string
}

// UploadResult describes a stored cover.
type UploadResult struct {
	URL      string                  `json:"url"`
	Path     string                  `json:"path"`
	BlurHash string                  `json:"blurhash,omitempty"`
	Stats    domain.CompressionStats `json:"stats"`
}

// ReplaceInput is a cover replacement on an existing curation.
type ReplaceInput struct {
	Data       []byte
	CurationID string
	UserID     string
}

// ReplaceResult is the updated curation and the upload that now backs it.
type ReplaceResult struct {
	Curation *domain.Curation `json:"curation"`
	Upload   *UploadResult    `json:"upload"`
}

// CoverService stores curation cover images.
//
// Replacing a cover deletes the old object before uploading the new one.
// The two are not atomic: a failure after the delete leaves the curation
// pointing at a missing object until the next successful replace.
type CoverService struct {
	curations  store.CurationStore
	blobs      blob.Store
	compressor *images.Compressor
	logger     *slog.Logger
	now        func() time.Time
}

// NewCoverService creates a cover service.
func NewCoverService(curations store.CurationStore, blobs blob.Store, compressor *images.Compressor, logger *slog.Logger) *CoverService {
	return &CoverService{
		curations:  curations,
		blobs:      blobs,
		compressor: compressor,
		logger:     logger,
		now:        time.Now,
	}
}

// Upload stores a cover that is not yet persisted on a curation: it deletes
// the current object (best-effort), compresses, and uploads.
func (s *CoverService) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if _, err := s.compressor.Validate(in.Data); err != nil {
		return nil, err
	}

	sg := newSaga("cover.upload", s.logger)
	var current *domain.CoverRef
	if in.CurrentURL != "" {
		current = &domain.CoverRef{CurationID: in.CurationID, URL: in.CurrentURL}
	}
	return s.putCover(ctx, sg, in.Data, in.CurationID, current)
}

// Replace swaps a curation's cover. The curation's version is captured
// before any storage call and the new cover is persisted only if it is
// unchanged. When persistence fails the new object is deleted.
func (s *CoverService) Replace(ctx context.Context, in ReplaceInput) (*ReplaceResult, error) {
	if _, err := s.compressor.Validate(in.Data); err != nil {
		return nil, err
	}

	c, err := s.curations.GetCuration(ctx, in.CurationID)
	if err != nil {
		return nil, storeError(err, "curation")
	}
	if !c.CanEdit(in.UserID) {
		return nil, domainerrors.Forbidden("you do not own this curation")
	}
	version := c.Version

	var current *domain.CoverRef
	if ref, ok := c.CoverRef(); ok {
		current = &ref
	}

	sg := newSaga("cover.replace", s.logger)
	upload, err := s.putCover(ctx, sg, in.Data, c.ID, current)
	if err != nil {
		return nil, err
	}

	var updated *domain.Curation
	err = sg.step(ctx, "persist", func(ctx context.Context) error {
		updated, err = s.curations.UpdateCover(ctx, c.ID, domain.CoverUpdate{
			URL:             &upload.URL,
			Path:            &upload.Path,
			BlurHash:        optional(upload.BlurHash),
			ExpectedVersion: version,
		})
		if err != nil {
			return domainerrors.DatabaseUpdateFailed("the new cover could not be saved on the curation", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("cover replaced",
		"curation_id", c.ID,
		"path", upload.Path,
		"version", updated.Version,
		"saved", upload.Stats.Summary,
	)
	return &ReplaceResult{Curation: updated, Upload: upload}, nil
}

// putCover runs the shared steps: drop the current object, compress, upload.
// The upload step registers deletion of the new object as its compensation.
func (s *CoverService) putCover(ctx context.Context, sg *saga, data []byte, curationID string, current *domain.CoverRef) (*UploadResult, error) {
	if current != nil {
		// Best-effort: a failure here is logged and never aborts the saga.
		_ = sg.step(ctx, "delete-old", func(ctx context.Context) error {
			s.discard(ctx, *current)
			return nil
		})
	}

	var compressed *images.Result
	err := sg.step(ctx, "compress", func(context.Context) error {
		var err error
		compressed, err = s.compressor.Compress(data)
		if err != nil {
			if domainerrors.CodeOf(err) == domainerrors.CodeValidation {
				return err
			}
			return domainerrors.CompressionFailed("the image could not be compressed", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	path, err := id.CoverPath(curationID, s.now())
	if err != nil {
		return nil, domainerrors.UploadFailed("could not allocate a storage path", err)
	}

	err = sg.step(ctx, "upload", func(ctx context.Context) error {
		if err := s.blobs.Put(ctx, path, compressed.Data, compressed.ContentType); err != nil {
			return domainerrors.UploadFailed("the image could not be uploaded", err)
		}
		sg.compensate("delete-new", func(ctx context.Context) error {
			return s.blobs.Delete(ctx, path)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &UploadResult{
		URL:      s.blobs.PublicURL(path),
		Path:     path,
		BlurHash: compressed.BlurHash,
		Stats:    compressed.Stats(),
	}, nil
}

// Remove clears a curation's cover, then deletes the object.
func (s *CoverService) Remove(ctx context.Context, curationID, userID string) (*domain.Curation, error) {
	c, err := s.curations.GetCuration(ctx, curationID)
	if err != nil {
		return nil, storeError(err, "curation")
	}
	if !c.CanEdit(userID) {
		return nil, domainerrors.Forbidden("you do not own this curation")
	}

	ref, ok := c.CoverRef()
	if !ok {
		return c, nil
	}

	updated, err := s.curations.UpdateCover(ctx, c.ID, domain.CoverUpdate{ExpectedVersion: c.Version})
	if err != nil {
		return nil, storeError(err, "curation")
	}

	s.discard(ctx, ref)
	s.logger.Info("cover removed", "curation_id", c.ID, "url", ref.URL)
	return updated, nil
}

// Attach returns the public URL for a path produced by Upload, for a
// curation created after its cover.
func (s *CoverService) Attach(path string) (string, error) {
	if !strings.HasPrefix(path, id.CoverPrefix) || blob.ValidatePath(path) != nil {
		return "", domainerrors.Validationf("cover path %q is not a cover upload", path)
	}
	return s.blobs.PublicURL(path), nil
}

// discard deletes the object behind ref. Failures are logged only.
func (s *CoverService) discard(ctx context.Context, ref domain.CoverRef) {
	path, ok := resolveCoverPath(s.blobs, ref)
	if !ok {
		s.logger.Warn("cover object path could not be resolved, leaving it for orphan cleanup",
			"curation_id", ref.CurationID,
			"url", ref.URL,
		)
		return
	}
	if err := s.blobs.Delete(ctx, path); err != nil {
		s.logger.Warn("failed to delete cover object",
			"curation_id", ref.CurationID,
			"path", path,
			"error", err,
		)
	}
}

// resolveCoverPath finds the storage path a cover reference points at: the
// stored canonical path, then the store's own URL format, then the first
// "curation-covers/" segment of a legacy URL.
func resolveCoverPath(blobs blob.Store, ref domain.CoverRef) (string, bool) {
	if ref.Path != "" {
		return ref.Path, blob.ValidatePath(ref.Path) == nil
	}
	if path, ok := blobs.PathFromURL(ref.URL); ok {
		return path, true
	}
	return legacyCoverPath(ref.URL)
}

func legacyCoverPath(url string) (string, bool) {
	i := strings.Index(url, id.CoverPrefix)
	if i < 0 {
		return "", false
	}
	path := url[i:]
	if j := strings.IndexAny(path, "?#"); j >= 0 {
		path = path[:j]
	}
	if blob.ValidatePath(path) != nil || path == id.CoverPrefix {
		return "", false
	}
	return path, true
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// String renders the result for logs and the CLI.
func (r *UploadResult) String() string {
	return fmt.Sprintf("%s (%s)", r.Path, r.Stats.Summary)
}
