package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tabsverse/tabsverse-server/internal/blob"
	"github.com/tabsverse/tabsverse-server/internal/domain"
	domainerrors "github.com/tabsverse/tabsverse-server/internal/errors"
	"github.com/tabsverse/tabsverse-server/internal/id"
	"github.com/tabsverse/tabsverse-server/internal/store"
)

// OrphanReport is the result of one scan.
type OrphanReport struct {
	ScannedAt time.Time `json:"scanned_at"`
	// Orphans are stored cover paths no curation references, sorted.
	Orphans    []string `json:"orphans"`
	OrphanSize string   `json:"orphan_size"`
	Stored     int      `json:"stored"`
	Referenced int      `json:"referenced"`
	// Unresolved are cover references whose object path could not be derived.
	Unresolved []domain.CoverRef `json:"unresolved,omitempty"`
	// Recent counts orphans skipped because they are younger than the grace period.
	Recent      int   `json:"recent"`
	OrphanBytes int64 `json:"orphan_bytes"`
}

// CleanupResult reports what a cleanup removed.
type CleanupResult struct {
	Report  *OrphanReport `json:"report"`
	Deleted []string      `json:"deleted"`
	DryRun  bool          `json:"dry_run"`
}

// OrphanService finds and removes cover objects that no curation references.
type OrphanService struct {
	curations store.CurationStore
	blobs     blob.Store
	logger    *slog.Logger
	now       func() time.Time
	// grace keeps objects younger than this out of the orphan set, covering
	// uploads whose curation row has not been written yet.
	grace time.Duration
}

// NewOrphanService creates an orphan service. A zero grace period treats
// every unreferenced object as an orphan.
func NewOrphanService(curations store.CurationStore, blobs blob.Store, grace time.Duration, logger *slog.Logger) *OrphanService {
	return &OrphanService{
		curations: curations,
		blobs:     blobs,
		logger:    logger,
		now:       time.Now,
		grace:     grace,
	}
}

// Scan lists stored covers and curation references and returns the
// difference.
func (s *OrphanService) Scan(ctx context.Context) (*OrphanReport, error) {
	objects, err := s.blobs.List(ctx, id.CoverPrefix)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to list stored covers")
	}

	refs, err := s.curations.ListCoverRefs(ctx)
	if err != nil {
		return nil, storeError(err, "curation")
	}

	now := s.now()
	report := &OrphanReport{
		ScannedAt: now.UTC(),
		Orphans:   []string{},
		Stored:    len(objects),
	}

	referenced := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		path, ok := resolveCoverPath(s.blobs, ref)
		if !ok {
			report.Unresolved = append(report.Unresolved, ref)
			s.logger.Warn("cover reference does not map to a storage path",
				"curation_id", ref.CurationID,
				"url", ref.URL,
			)
			continue
		}
		referenced[path] = struct{}{}
	}
	report.Referenced = len(referenced)

	for _, obj := range objects {
		if _, ok := referenced[obj.Path]; ok {
			continue
		}
		if s.grace > 0 && !obj.UpdatedAt.IsZero() && now.Sub(obj.UpdatedAt) < s.grace {
			report.Recent++
			continue
		}
		report.Orphans = append(report.Orphans, obj.Path)
		report.OrphanBytes += obj.Size
	}
	sort.Strings(report.Orphans)
	report.OrphanSize = humanize.Bytes(uint64(report.OrphanBytes))

	s.logger.Info("orphan scan complete",
		"stored", report.Stored,
		"referenced", report.Referenced,
		"orphans", len(report.Orphans),
		"orphan_size", report.OrphanSize,
		"unresolved", len(report.Unresolved),
	)
	return report, nil
}

// Cleanup scans and deletes the orphan set with a single batched delete.
// With dryRun set it only reports what would be deleted.
func (s *OrphanService) Cleanup(ctx context.Context, dryRun bool) (*CleanupResult, error) {
	report, err := s.Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := &CleanupResult{Report: report, Deleted: []string{}, DryRun: dryRun}
	if dryRun || len(report.Orphans) == 0 {
		return result, nil
	}

	if err := s.blobs.Delete(ctx, report.Orphans...); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to delete orphaned covers")
	}
	result.Deleted = report.Orphans

	s.logger.Info("orphaned covers deleted", "count", len(result.Deleted), "size", report.OrphanSize)
	return result, nil
}
