// Package handlers implements the HTTP API of the ingestion service.
//
// Routes are registered by RegisterRoutes under the /api/v1 group:
// ingestion triggers, the public event read path and health probes.
//
// Import Path: archive.alpha.io/archive/internal/api/handlers
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"archive.alpha.io/archive/internal/domain"
	"archive.alpha.io/archive/internal/jobs"
	"archive.alpha.io/archive/internal/provider"
)

// Ingester runs ingestion on demand.
type Ingester interface {
	IngestAll(ctx context.Context, params provider.Params) domain.IngestionResult
	IngestSource(ctx context.Context, name string, params provider.Params) (domain.IngestionResult, error)
}

// IngestEnqueuer schedules an ingestion on the job queue.
type IngestEnqueuer interface {
	EnqueueIngest(ctx context.Context, source string, params provider.Params) (jobs.EnqueuedJob, error)
}

// EventReader is the read side of the event store.
type EventReader interface {
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	ListActive(ctx context.Context, f domain.ListFilter) (*domain.EventPage, error)
}

// SourceHealthReporter reports the last known state of every source.
type SourceHealthReporter interface {
	All() []provider.SourceHealth
}

// Pinger checks a backing dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the dependencies of all API handlers.
type Server struct {
	ingester      Ingester
	enqueuer      IngestEnqueuer
	events        EventReader
	health        SourceHealthReporter
	db            Pinger
	ingestTimeout time.Duration
}

// ServerDeps holds all dependencies for creating a Server.
// Manual DI, no Wire/Dig.
type ServerDeps struct {
	Ingester     Ingester
	Enqueuer     IngestEnqueuer
	Events       EventReader
	SourceHealth SourceHealthReporter
	DB           Pinger
	// IngestTimeout bounds a triggered run; 0 means no extra bound.
	IngestTimeout time.Duration
}

// NewServer creates a new Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	return &Server{
		ingester:      deps.Ingester,
		enqueuer:      deps.Enqueuer,
		events:        deps.Events,
		health:        deps.SourceHealth,
		db:            deps.DB,
		ingestTimeout: deps.IngestTimeout,
	}
}

// RegisterRoutes mounts every handler on r (normally the /api/v1 group).
func (s *Server) RegisterRoutes(r gin.IRouter) {
	ingest := r.Group("/public-data")
	ingest.POST("/ingest", s.TriggerIngest)
	ingest.POST("/ingest/culture", s.TriggerCultureIngest)
	ingest.POST("/ingest/cultural", s.TriggerCulturalIngest)
	ingest.POST("/ingest/async", s.EnqueueIngest)

	events := r.Group("/public-events")
	events.GET("", s.ListPublicEvents)
	events.GET("/:id", s.GetPublicEvent)

	health := r.Group("/health")
	health.GET("/live", s.GetLiveness)
	health.GET("/ready", s.GetReadiness)
	health.GET("/sources", s.GetSourceHealth)
}
