package providers

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/samber/do/v2"

	"github.com/tabsverse/tabsverse-server/internal/baas"
	"github.com/tabsverse/tabsverse-server/internal/blob"
	"github.com/tabsverse/tabsverse-server/internal/config"
	"github.com/tabsverse/tabsverse-server/internal/logger"
	"github.com/tabsverse/tabsverse-server/internal/media/images"
)

// BlobStoreHandle wraps the cover object store.
// Files is set only for the local backend, which the API serves itself.
type BlobStoreHandle struct {
	blob.Store
	Files *blob.Local
	gcs   *blob.GCS
}

// Shutdown implements do.Shutdownable.
func (h *BlobStoreHandle) Shutdown() error {
	if h.gcs != nil {
		return h.gcs.Close()
	}
	return nil
}

// ProvideBlobStore provides the object store for the configured backend.
func ProvideBlobStore(i do.Injector) (*BlobStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Storage.Backend {
	case config.StorageSupabase:
		client := do.MustInvoke[*baas.Client](i)
		log.Info("Cover storage initialized", "backend", "supabase", "bucket", cfg.Supabase.Bucket)
		return &BlobStoreHandle{Store: baas.NewStorage(client, cfg.Supabase.Bucket)}, nil

	case config.StorageGCS:
		client, err := storage.NewClient(context.Background())
		if err != nil {
			return nil, fmt.Errorf("gcs client: %w", err)
		}
		gcs, err := blob.NewGCS(client, cfg.Storage.GCSBucket)
		if err != nil {
			client.Close()
			return nil, err
		}
		log.Info("Cover storage initialized", "backend", "gcs", "bucket", cfg.Storage.GCSBucket)
		return &BlobStoreHandle{Store: gcs, gcs: gcs}, nil

	case config.StorageLocal:
		local, err := blob.NewLocal(cfg.Storage.LocalPath, cfg.Storage.LocalBaseURL)
		if err != nil {
			return nil, fmt.Errorf("local storage: %w", err)
		}
		log.Info("Cover storage initialized", "backend", "local", "path", local.Root())
		return &BlobStoreHandle{Store: local, Files: local}, nil
	}

	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// ProvideCompressor provides the cover image compressor.
func ProvideCompressor(i do.Injector) (*images.Compressor, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return images.NewCompressor(images.Options{
		MaxInputBytes:  cfg.Images.MaxUploadBytes,
		TargetSize:     cfg.Images.TargetSize,
		MaxOutputBytes: cfg.Images.MaxOutputBytes,
		InitialQuality: cfg.Images.InitialQuality,
		MinQuality:     cfg.Images.MinQuality,
		QualityStep:    cfg.Images.QualityStep,
	}, log.Logger), nil
}
