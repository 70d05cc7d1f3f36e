package api

import (
	"github.com/tabsverse/tabsverse-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Curations *service.CurationService
	Tabs      *service.TabService
	Covers    *service.CoverService    // Cover upload and replace saga
	Orphans   *service.OrphanService   // Unreferenced cover cleanup
	Search    *service.SearchService   // nil when search is disabled
	Metadata  *service.MetadataService // Link previews
}
