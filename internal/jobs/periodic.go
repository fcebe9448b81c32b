package jobs

import (
	"github.com/riverqueue/river"

	"archive.alpha.io/archive/internal/config"
)

// PeriodicJobs returns the scheduled jobs for the ingestion section.
// A zero interval leaves the corresponding job unscheduled.
func PeriodicJobs(cfg config.IngestionConfig) []*river.PeriodicJob {
	var jobs []*river.PeriodicJob
	if cfg.ScheduleInterval > 0 {
		jobs = append(jobs, river.NewPeriodicJob(
			river.PeriodicInterval(cfg.ScheduleInterval),
			func() (river.JobArgs, *river.InsertOpts) {
				return IngestPublicDataArgs{}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: cfg.RunOnStart},
		))
	}
	if cfg.ArchiveInterval > 0 {
		jobs = append(jobs, river.NewPeriodicJob(
			river.PeriodicInterval(cfg.ArchiveInterval),
			func() (river.JobArgs, *river.InsertOpts) {
				return ArchiveEndedEventsArgs{}, nil
			},
			nil,
		))
	}
	return jobs
}
