package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/tabsverse/tabsverse-server/internal/errors"
	"github.com/tabsverse/tabsverse-server/internal/service"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "scanOrphanCovers",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/orphans",
		Summary:     "Scan orphaned covers",
		Description: "Lists stored cover images that no curation references. Read-only.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleScanOrphans)

	huma.Register(s.api, huma.Operation{
		OperationID: "cleanupOrphanCovers",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/orphans/cleanup",
		Summary:     "Delete orphaned covers",
		Description: "Rescans and deletes every orphaned cover in one batched call. Safe to repeat.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCleanupOrphans)

	huma.Register(s.api, huma.Operation{
		OperationID:   "reindexSearch",
		Method:        http.MethodPost,
		Path:          "/api/v1/admin/search/reindex",
		Summary:       "Rebuild search index",
		Description:   "Rebuilds the search index from every public curation",
		Tags:          []string{"Admin"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleReindexSearch)
}

// === DTOs ===

// OrphanReportOutput wraps a scan for Huma.
type OrphanReportOutput struct {
	Body *service.OrphanReport
}

// CleanupOrphansRequest controls a cleanup run.
type CleanupOrphansRequest struct {
	Body struct {
		DryRun bool `json:"dry_run,omitempty" doc:"Report what would be deleted without deleting"`
	} `required:"false"`
}

// CleanupOutput wraps a cleanup result for Huma.
type CleanupOutput struct {
	Body *service.CleanupResult
}

// === Handlers ===

func (s *Server) handleScanOrphans(ctx context.Context, _ *struct{}) (*OrphanReportOutput, error) {
	if err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	report, err := s.services.Orphans.Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &OrphanReportOutput{Body: report}, nil
}

func (s *Server) handleCleanupOrphans(ctx context.Context, input *CleanupOrphansRequest) (*CleanupOutput, error) {
	if err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	result, err := s.services.Orphans.Cleanup(ctx, input.Body.DryRun)
	if err != nil {
		return nil, err
	}

	s.logger.Info("orphan cleanup requested",
		"user_id", optionalUserID(ctx),
		"dry_run", result.DryRun,
		"deleted", len(result.Deleted),
	)
	return &CleanupOutput{Body: result}, nil
}

func (s *Server) handleReindexSearch(ctx context.Context, _ *struct{}) (*struct{}, error) {
	if err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if s.services.Search == nil {
		return nil, domainerrors.Internal("search is not enabled")
	}

	if err := s.services.Search.ReindexAll(ctx); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "reindex failed")
	}
	return nil, nil
}
