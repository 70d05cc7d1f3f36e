package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/tabsverse/tabsverse-server/internal/config"
	"github.com/tabsverse/tabsverse-server/internal/logger"
	"github.com/tabsverse/tabsverse-server/internal/service"
)

// OrphanSweepJob periodically deletes orphaned covers.
type OrphanSweepJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *OrphanSweepJob) Shutdown() error {
	if j.cancel != nil {
		j.cancel()
	}
	return nil
}

// ProvideOrphanSweepJob starts the sweep when ORPHAN_GRACE is positive.
// Without a grace period a sweep could delete an upload whose curation is
// still being created, so cleanup stays manual.
func ProvideOrphanSweepJob(i do.Injector) (*OrphanSweepJob, error) {
	cfg := do.MustInvoke[*config.Config](i)
	orphans := do.MustInvoke[*service.OrphanService](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Storage.OrphanGrace <= 0 {
		log.Info("Orphan sweep disabled, set ORPHAN_GRACE to enable")
		return &OrphanSweepJob{}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	sweep := func() {
		result, err := orphans.Cleanup(ctx, false)
		if err != nil {
			log.Warn("Orphan sweep failed", "error", err)
			return
		}
		if len(result.Deleted) > 0 {
			log.Info("Orphan sweep completed",
				"deleted", len(result.Deleted),
				"size", result.Report.OrphanSize,
			)
		}
	}

	go func() {
		ticker := time.NewTicker(orphanSweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sweep()
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Orphan sweep job started",
		"interval", orphanSweepInterval,
		"grace", cfg.Storage.OrphanGrace,
	)

	return &OrphanSweepJob{cancel: cancel}, nil
}
