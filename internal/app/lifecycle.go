package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"archive.alpha.io/archive/internal/pkg/logger"
)

const defaultShutdownTimeout = 30 * time.Second

// Start starts the ingestion scheduler: the River client that consumes
// triggered runs and fires the periodic ingest and archive jobs.
func (a *Application) Start(ctx context.Context) error {
	if a.DB == nil || a.DB.RiverClient == nil {
		logger.Warn("No job queue configured, scheduled ingestion is disabled")
		return nil
	}
	if err := a.DB.RiverClient.Start(ctx); err != nil {
		return fmt.Errorf("start ingestion scheduler: %w", err)
	}

	fields := []zap.Field{}
	if a.Config != nil {
		fields = append(fields,
			zap.Duration("schedule_interval", a.Config.Ingestion.ScheduleInterval),
			zap.Bool("run_on_start", a.Config.Ingestion.RunOnStart),
			zap.Duration("archive_interval", a.Config.Ingestion.ArchiveInterval),
		)
	}
	logger.Info("Ingestion scheduler started", fields...)
	return nil
}

// Shutdown stops the scheduler, then modules, pools and the database.
// A run still in flight when the timeout expires is cancelled.
func (a *Application) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()

	if a.DB != nil && a.DB.RiverClient != nil {
		if err := a.DB.RiverClient.Stop(ctx); err != nil {
			logger.Warn("Ingestion scheduler did not drain in time, cancelling running jobs", zap.Error(err))
			if errors.Is(err, context.DeadlineExceeded) {
				cancelCtx, cancelStop := context.WithTimeout(context.Background(), 5*time.Second)
				if err := a.DB.RiverClient.StopAndCancel(cancelCtx); err != nil {
					logger.Error("Failed to cancel running ingestion jobs", zap.Error(err))
				}
				cancelStop()
			}
		}
		logger.Info("Ingestion scheduler stopped")
	}

	for _, mod := range a.Modules {
		if mod == nil {
			continue
		}
		if err := mod.Shutdown(ctx); err != nil {
			logger.Warn("module shutdown returned error",
				zap.String("module", mod.Name()),
				zap.Error(err),
			)
		}
	}

	if a.Pools != nil {
		a.Pools.Shutdown()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func (a *Application) shutdownTimeout() time.Duration {
	if a.Config == nil || a.Config.Server.ShutdownTimeout <= 0 {
		return defaultShutdownTimeout
	}
	return a.Config.Server.ShutdownTimeout
}
