package jobs

import (
	"context"
	"fmt"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"archive.alpha.io/archive/internal/provider"
)

// JobInserter is the part of the River client used to enqueue jobs.
type JobInserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// EnqueuedJob describes an enqueued ingestion.
type EnqueuedJob struct {
	JobID int64 `json:"jobId"`
	// Duplicate is true when an identical job was already pending.
	Duplicate bool `json:"duplicate"`
}

// IngestEnqueuer schedules ingestion runs on the job queue instead of
// running them inside the caller's request.
type IngestEnqueuer struct {
	inserter JobInserter
}

// NewIngestEnqueuer creates an enqueuer backed by a River client.
func NewIngestEnqueuer(inserter JobInserter) *IngestEnqueuer {
	return &IngestEnqueuer{inserter: inserter}
}

// EnqueueIngest inserts an ingest_public_data job. An empty source means
// every enabled source.
func (e *IngestEnqueuer) EnqueueIngest(ctx context.Context, source string, params provider.Params) (EnqueuedJob, error) {
	if e == nil || e.inserter == nil {
		return EnqueuedJob{}, fmt.Errorf("ingest enqueuer is not initialized")
	}
	if err := params.Validate(); err != nil {
		return EnqueuedJob{}, err
	}

	res, err := e.inserter.Insert(ctx, IngestPublicDataArgs{Source: source, Params: params}, nil)
	if err != nil {
		return EnqueuedJob{}, fmt.Errorf("enqueue ingest_public_data: %w", err)
	}
	out := EnqueuedJob{Duplicate: res.UniqueSkippedAsDuplicate}
	if res.Job != nil {
		out.JobID = res.Job.ID
	}
	return out, nil
}
