// Package jobs defines River Queue job types for background processing.
//
// Jobs carry only their parameters; workers resolve collaborators
// (ingestion coordinator, event store) at construction time.
//
// Import Path: archive.alpha.io/archive/internal/jobs
package jobs
