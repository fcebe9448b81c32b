package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"archive.alpha.io/archive/internal/pkg/logger"
)

// DefaultArchiveAfter is how long after its end an event stays ACTIVE.
const DefaultArchiveAfter = 30 * 24 * time.Hour

// Archiver marks ended events ARCHIVED.
type Archiver interface {
	ArchiveEnded(ctx context.Context, before time.Time) (int64, error)
}

// ArchiveEndedEventsArgs is a periodic maintenance job that archives events
// whose end date has passed. Rows are never deleted.
type ArchiveEndedEventsArgs struct{}

// Kind returns the job kind identifier.
func (ArchiveEndedEventsArgs) Kind() string { return "archive_ended_events" }

// InsertOpts ensures at most one archive job is enqueued within the same day.
func (ArchiveEndedEventsArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       river.QueueDefault,
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByPeriod: 24 * time.Hour,
			ByQueue:  true,
			ByArgs:   true,
		},
	}
}

// ArchiveEndedEventsWorker archives events that ended more than the
// configured duration ago.
type ArchiveEndedEventsWorker struct {
	river.WorkerDefaults[ArchiveEndedEventsArgs]
	store Archiver
	after time.Duration
	now   func() time.Time
}

// NewArchiveEndedEventsWorker creates an archive worker. Non-positive after
// falls back to the 30-day default.
func NewArchiveEndedEventsWorker(store Archiver, after time.Duration) *ArchiveEndedEventsWorker {
	if after <= 0 {
		after = DefaultArchiveAfter
	}
	return &ArchiveEndedEventsWorker{
		store: store,
		after: after,
		now:   time.Now,
	}
}

// Work archives ended events.
func (w *ArchiveEndedEventsWorker) Work(ctx context.Context, _ *river.Job[ArchiveEndedEventsArgs]) error {
	if w == nil || w.store == nil {
		return fmt.Errorf("archive worker is not initialized")
	}

	cutoff := w.now().UTC().Add(-w.after)
	archived, err := w.store.ArchiveEnded(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archive events ended before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	logger.Info("archive of ended events completed",
		zap.Int64("archived_rows", archived),
		zap.String("cutoff", cutoff.Format(time.RFC3339)),
		zap.Duration("after", w.after),
	)
	return nil
}
