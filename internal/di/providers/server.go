package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/tabsverse/tabsverse-server/internal/api"
	"github.com/tabsverse/tabsverse-server/internal/baas"
	"github.com/tabsverse/tabsverse-server/internal/config"
	"github.com/tabsverse/tabsverse-server/internal/logger"
	"github.com/tabsverse/tabsverse-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(h.Server.Shutdown(ctx), h.api.Shutdown())
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	blobHandle := do.MustInvoke[*BlobStoreHandle](i)
	verifier := do.MustInvoke[*baas.Verifier](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Curations: do.MustInvoke[*service.CurationService](i),
		Tabs:      do.MustInvoke[*service.TabService](i),
		Covers:    do.MustInvoke[*service.CoverService](i),
		Orphans:   do.MustInvoke[*service.OrphanService](i),
		Search:    do.MustInvoke[*service.SearchService](i),
		Metadata:  do.MustInvoke[*service.MetadataService](i),
	}

	apiServer := api.NewServer(cfg, storeHandle.Store, services, verifier, blobHandle.Files, log.Logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, api: apiServer}, nil
}
