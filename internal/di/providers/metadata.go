package providers

import (
	"errors"

	"github.com/samber/do/v2"

	"github.com/tabsverse/tabsverse-server/internal/config"
	"github.com/tabsverse/tabsverse-server/internal/logger"
	"github.com/tabsverse/tabsverse-server/internal/metadata"
)

// ExtractorHandle wraps the URL metadata extractor with the cache and
// renderer it owns.
type ExtractorHandle struct {
	*metadata.Extractor
	cache    *metadata.Cache
	renderer *metadata.RodRenderer
}

// Shutdown implements do.Shutdownable.
func (h *ExtractorHandle) Shutdown() error {
	h.Extractor.Close()

	var errs []error
	if h.renderer != nil {
		errs = append(errs, h.renderer.Close())
	}
	if h.cache != nil {
		errs = append(errs, h.cache.Close())
	}
	return errors.Join(errs...)
}

// ProvideExtractor provides the metadata extractor. A cache that fails to
// open is logged and skipped; extraction still works without it.
func ProvideExtractor(i do.Injector) (*ExtractorHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	opts := metadata.DefaultOptions()
	opts.Timeout = cfg.Metadata.Timeout
	opts.UserAgent = cfg.Metadata.UserAgent
	opts.MaxBodyBytes = cfg.Metadata.MaxBodyBytes
	opts.AllowPrivateNetworks = cfg.Metadata.AllowPrivateNetworks
	if cfg.Metadata.HostRPS > 0 {
		opts.HostRPS = cfg.Metadata.HostRPS
	}

	handle := &ExtractorHandle{}
	var options []metadata.Option

	if cfg.Metadata.CacheTTL > 0 {
		cache, err := metadata.OpenCache(cfg.Metadata.CachePath, cfg.Metadata.CacheTTL, log.Logger)
		if err != nil {
			log.WithError(err).Warn("Metadata cache unavailable, continuing without it",
				"path", cfg.Metadata.CachePath,
			)
		} else {
			handle.cache = cache
			options = append(options, metadata.WithCache(cache))
		}
	}

	if cfg.Metadata.BrowserFallback {
		handle.renderer = metadata.NewRodRenderer(cfg.Metadata.BrowserPath, cfg.Metadata.AllowPrivateNetworks, log.Logger)
		options = append(options, metadata.WithRenderer(handle.renderer))
	}

	handle.Extractor = metadata.NewExtractor(opts, log.Logger, options...)

	log.Info("Metadata extractor initialized",
		"timeout", opts.Timeout,
		"cache", handle.cache != nil,
		"browser_fallback", handle.renderer != nil,
		"allow_private_networks", opts.AllowPrivateNetworks,
	)

	return handle, nil
}
