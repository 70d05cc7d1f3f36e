package providers

import (
	"github.com/samber/do/v2"

	"github.com/tabsverse/tabsverse-server/internal/config"
	"github.com/tabsverse/tabsverse-server/internal/logger"
	"github.com/tabsverse/tabsverse-server/internal/media/images"
	"github.com/tabsverse/tabsverse-server/internal/service"
	"github.com/tabsverse/tabsverse-server/internal/validation"
)

// ProvideValidator provides the shared struct validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideCoverService provides the cover upload and replace service.
func ProvideCoverService(i do.Injector) (*service.CoverService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	blobHandle := do.MustInvoke[*BlobStoreHandle](i)
	compressor := do.MustInvoke[*images.Compressor](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCoverService(storeHandle.Store, blobHandle.Store, compressor, log.Logger), nil
}

// ProvideOrphanService provides the orphaned cover scanner.
func ProvideOrphanService(i do.Injector) (*service.OrphanService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	blobHandle := do.MustInvoke[*BlobStoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewOrphanService(storeHandle.Store, blobHandle.Store, cfg.Storage.OrphanGrace, log.Logger), nil
}

// ProvideCurationService provides the curation service.
func ProvideCurationService(i do.Injector) (*service.CurationService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	covers := do.MustInvoke[*service.CoverService](i)
	searcher := do.MustInvoke[*service.SearchService](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCurationService(storeHandle.Store, covers, searcher, validator, log.Logger), nil
}

// ProvideTabService provides the tab service.
func ProvideTabService(i do.Injector) (*service.TabService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	extractor := do.MustInvoke[*ExtractorHandle](i)
	curations := do.MustInvoke[*service.CurationService](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTabService(storeHandle.Store, extractor.Extractor, curations, validator, log.Logger), nil
}

// ProvideMetadataService provides the standalone link preview service.
func ProvideMetadataService(i do.Injector) (*service.MetadataService, error) {
	extractor := do.MustInvoke[*ExtractorHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewMetadataService(extractor.Extractor, validator, log.Logger), nil
}
