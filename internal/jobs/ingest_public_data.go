package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"archive.alpha.io/archive/internal/domain"
	"archive.alpha.io/archive/internal/pkg/logger"
	"archive.alpha.io/archive/internal/provider"
)

// DefaultIngestTimeout bounds one ingestion run when none is configured.
const DefaultIngestTimeout = 30 * time.Minute

// Ingester runs ingestion over all enabled sources or one named source.
type Ingester interface {
	IngestAll(ctx context.Context, params provider.Params) domain.IngestionResult
	IngestSource(ctx context.Context, name string, params provider.Params) (domain.IngestionResult, error)
}

// IngestPublicDataArgs pulls every enabled source, or only Source when set.
type IngestPublicDataArgs struct {
	Source string          `json:"source,omitempty"`
	Params provider.Params `json:"params"`
}

// Kind returns the job kind identifier.
func (IngestPublicDataArgs) Kind() string { return "ingest_public_data" }

// InsertOpts keeps at most one identical ingestion enqueued per hour.
func (IngestPublicDataArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       river.QueueDefault,
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByPeriod: time.Hour,
			ByQueue:  true,
			ByArgs:   true,
		},
	}
}

// IngestPublicDataWorker runs the ingestion coordinator.
type IngestPublicDataWorker struct {
	river.WorkerDefaults[IngestPublicDataArgs]
	ingester Ingester
	timeout  time.Duration
}

// NewIngestPublicDataWorker creates the worker. Non-positive timeout falls
// back to DefaultIngestTimeout.
func NewIngestPublicDataWorker(ingester Ingester, timeout time.Duration) *IngestPublicDataWorker {
	if timeout <= 0 {
		timeout = DefaultIngestTimeout
	}
	return &IngestPublicDataWorker{ingester: ingester, timeout: timeout}
}

// Timeout overrides River's default job timeout.
func (w *IngestPublicDataWorker) Timeout(*river.Job[IngestPublicDataArgs]) time.Duration {
	return w.timeout
}

// Work runs one ingestion. Per-source failures are part of the result and
// do not fail the job; only an unknown source name cancels it.
func (w *IngestPublicDataWorker) Work(ctx context.Context, job *river.Job[IngestPublicDataArgs]) error {
	if w == nil || w.ingester == nil {
		return fmt.Errorf("ingest worker is not initialized")
	}

	var args IngestPublicDataArgs
	if job != nil {
		args = job.Args
	}
	if err := args.Params.Validate(); err != nil {
		return river.JobCancel(err)
	}

	var result domain.IngestionResult
	if args.Source == "" {
		result = w.ingester.IngestAll(ctx, args.Params)
	} else {
		var err error
		result, err = w.ingester.IngestSource(ctx, args.Source, args.Params)
		if err != nil {
			return river.JobCancel(err)
		}
	}

	fields := []zap.Field{
		zap.String("source", args.Source),
		zap.Int("processed", result.TotalProcessed),
		zap.Int("saved", result.TotalSaved),
		zap.Int("errors", len(result.Errors)),
	}
	if len(result.Errors) > 0 {
		logger.Warn("scheduled ingestion finished with errors", append(fields, zap.Strings("error_messages", result.Errors))...)
		return nil
	}
	logger.Info("scheduled ingestion finished", fields...)
	return nil
}
