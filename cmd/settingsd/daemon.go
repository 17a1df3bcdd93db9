package main

import (
	"context"
	"fmt"
	"time"
)

// runDaemon opens the store with its change feeds and drives Tick from the
// configured control loop interval until ctx is cancelled.
func runDaemon(ctx context.Context, e *env) error {
	log := e.log
	log.Info("starting settingsd",
		"version", version,
		"commit", commit,
		"build_date", date,
		"device", e.cfg.Device.ID,
	)

	a, err := openApp(ctx, e, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if retention := e.cfg.HistoryRetention(); retention > 0 {
		pruned, pruneErr := a.history.Prune(ctx, retention)
		if pruneErr != nil {
			return fmt.Errorf("pruning history: %w", pruneErr)
		}
		log.Info("history pruned", "removed", pruned, "retention", retention)
	}

	if err := a.publishSnapshot(); err != nil {
		return err
	}

	if err := a.healthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	interval := e.cfg.TickInterval()
	log.Info("initialisation complete, entering control loop", "tick_interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received, cleaning up")
			log.Info("settingsd stopped")
			return nil
		case now := <-ticker.C:
			a.store.Tick(now)
		}
	}
}
