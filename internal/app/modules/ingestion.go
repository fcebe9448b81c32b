package modules

import (
	"context"
	"fmt"

	"github.com/riverqueue/river"

	"archive.alpha.io/archive/internal/api/handlers"
	"archive.alpha.io/archive/internal/config"
	"archive.alpha.io/archive/internal/jobs"
	"archive.alpha.io/archive/internal/mapper"
	"archive.alpha.io/archive/internal/pkg/worker"
	"archive.alpha.io/archive/internal/provider"
	"archive.alpha.io/archive/internal/service"
)

// IngestionStore is what the ingestion module needs from the event store.
type IngestionStore interface {
	service.EventStore
	jobs.Archiver
}

// IngestionModule wires source adapters, the coordinator and its jobs.
type IngestionModule struct {
	cfg     config.IngestionConfig
	store   IngestionStore
	health  *provider.HealthTracker
	service *service.IngestionService
}

// BuildSources creates one adapter per configured provider, in a fixed
// order: culture first, then cultural.
func BuildSources(cfg config.SourcesConfig) ([]provider.Source, error) {
	culture, err := provider.NewCultureSource(cfg.Culture.ProviderConfig())
	if err != nil {
		return nil, fmt.Errorf("culture source: %w", err)
	}
	cultural, err := provider.NewCulturalSource(cfg.Cultural.ProviderConfig())
	if err != nil {
		return nil, fmt.Errorf("cultural source: %w", err)
	}
	return []provider.Source{culture, cultural}, nil
}

// NewIngestionModule creates the module. pool runs one task per source.
func NewIngestionModule(cfg *config.Config, store IngestionStore, pool *worker.Pool) (*IngestionModule, error) {
	if cfg == nil || store == nil || pool == nil {
		return nil, fmt.Errorf("ingestion module requires config, event store, and fetch pool")
	}
	sources, err := BuildSources(cfg.Sources)
	if err != nil {
		return nil, err
	}
	return NewIngestionModuleWithSources(cfg.Ingestion, cfg.Sources.MapperOptions(), sources, store, pool), nil
}

// NewIngestionModuleWithSources wires the module around explicit sources.
func NewIngestionModuleWithSources(
	cfg config.IngestionConfig,
	mapperOpts []mapper.Option,
	sources []provider.Source,
	store IngestionStore,
	pool *worker.Pool,
) *IngestionModule {
	health := provider.NewHealthTracker(sources...)
	return &IngestionModule{
		cfg:     cfg,
		store:   store,
		health:  health,
		service: service.NewIngestionService(sources, mapper.New(mapperOpts...), store, pool, health),
	}
}

func (m *IngestionModule) Name() string { return "ingestion" }

// Service returns the ingestion coordinator.
func (m *IngestionModule) Service() *service.IngestionService { return m.service }

// Health returns the per-source health tracker.
func (m *IngestionModule) Health() *provider.HealthTracker { return m.health }

func (m *IngestionModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	if deps == nil {
		return
	}
	deps.Ingester = m.service
	deps.SourceHealth = m.health
	deps.IngestTimeout = m.cfg.RunTimeout
}

func (m *IngestionModule) RegisterWorkers(workers *river.Workers) {
	if workers == nil || m == nil {
		return
	}
	river.AddWorker(workers, jobs.NewIngestPublicDataWorker(m.service, m.cfg.RunTimeout))
	river.AddWorker(workers, jobs.NewArchiveEndedEventsWorker(m.store, m.cfg.ArchiveAfter))
}

func (m *IngestionModule) Shutdown(context.Context) error { return nil }
