// Package di provides dependency injection configuration for the Tabsverse server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/tabsverse/tabsverse-server/internal/baas"
	"github.com/tabsverse/tabsverse-server/internal/config"
	"github.com/tabsverse/tabsverse-server/internal/di/providers"
	"github.com/tabsverse/tabsverse-server/internal/logger"
	"github.com/tabsverse/tabsverse-server/internal/media/images"
	"github.com/tabsverse/tabsverse-server/internal/service"
	"github.com/tabsverse/tabsverse-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()
	registerCore(injector)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	// Workers
	do.Provide(injector, providers.ProvideOrphanSweepJob)

	return injector
}

// NewToolContainer registers everything except the HTTP server and the
// background workers, for command-line tools that call services directly.
func NewToolContainer() *do.RootScope {
	injector := do.New()
	registerCore(injector)
	return injector
}

func registerCore(injector *do.RootScope) {
	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideVerifier)
	do.Provide(injector, providers.ProvideValidator)

	// Database layer
	do.Provide(injector, providers.ProvideBaaSClient)
	do.Provide(injector, providers.ProvideStore)

	// Storage layer
	do.Provide(injector, providers.ProvideBlobStore)
	do.Provide(injector, providers.ProvideCompressor)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Metadata layer
	do.Provide(injector, providers.ProvideExtractor)

	// Business services
	do.Provide(injector, providers.ProvideCoverService)
	do.Provide(injector, providers.ProvideOrphanService)
	do.Provide(injector, providers.ProvideCurationService)
	do.Provide(injector, providers.ProvideTabService)
	do.Provide(injector, providers.ProvideMetadataService)
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*baas.Verifier](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.BlobStoreHandle](injector)
	_ = do.MustInvoke[*images.Compressor](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*service.SearchService](injector)
	_ = do.MustInvoke[*providers.ExtractorHandle](injector)

	// Business services
	_ = do.MustInvoke[*service.CoverService](injector)
	_ = do.MustInvoke[*service.OrphanService](injector)
	_ = do.MustInvoke[*service.CurationService](injector)
	_ = do.MustInvoke[*service.TabService](injector)
	_ = do.MustInvoke[*service.MetadataService](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Workers
	_ = do.MustInvoke[*providers.OrphanSweepJob](injector)

	// Trigger search reindex if needed
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
