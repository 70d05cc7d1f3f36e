package providers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/tabsverse/tabsverse-server/internal/baas"
	"github.com/tabsverse/tabsverse-server/internal/config"
	"github.com/tabsverse/tabsverse-server/internal/logger"
	"github.com/tabsverse/tabsverse-server/internal/store"
	"github.com/tabsverse/tabsverse-server/internal/store/postgres"
	"github.com/tabsverse/tabsverse-server/internal/store/sqlite"
)

// ProvideBaaSClient provides the REST client for the backend-as-a-service.
// It is only invoked when the database or storage backend needs it.
func ProvideBaaSClient(i do.Injector) (*baas.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := baas.New(cfg.Supabase.URL, cfg.Supabase.ServiceKey, log.Logger)
	log.Info("BaaS client initialized", "url", cfg.Supabase.URL)

	return client, nil
}

// StoreHandle wraps the selected store backend with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the curation store for the configured backend.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var (
		st  store.Store
		err error
	)

	switch cfg.Database.Backend {
	case config.DatabaseSQLite:
		if err = os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		st, err = sqlite.Open(cfg.Database.SQLitePath, log.Logger)
	case config.DatabasePostgres:
		st, err = postgres.Open(cfg.Database.PostgresDSN, log.Logger)
	case config.DatabaseBaaS:
		st = baas.NewStore(do.MustInvoke[*baas.Client](i))
	default:
		return nil, fmt.Errorf("unknown database backend %q", cfg.Database.Backend)
	}
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "backend", cfg.Database.Backend)

	return &StoreHandle{Store: st}, nil
}
