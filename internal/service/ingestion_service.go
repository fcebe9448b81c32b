package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"archive.alpha.io/archive/internal/domain"
	"archive.alpha.io/archive/internal/metrics"
	apperrors "archive.alpha.io/archive/internal/pkg/errors"
	"archive.alpha.io/archive/internal/pkg/logger"
	"archive.alpha.io/archive/internal/pkg/tracing"
	"archive.alpha.io/archive/internal/pkg/worker"
	"archive.alpha.io/archive/internal/provider"
)

// EventStore is the write side the coordinator needs.
type EventStore interface {
	// UpsertMany persists events and returns how many were inserted or updated.
	UpsertMany(ctx context.Context, events []*domain.Event) int
}

// ItemMapper converts raw provider items into canonical events.
type ItemMapper interface {
	MapCulture(item provider.CultureItem, source string) (*domain.Event, error)
	MapCultural(item provider.CulturalItem, source string) (*domain.Event, error)
}

// FetchObserver is told the outcome of every source fetch.
type FetchObserver interface {
	Record(source string, err error)
}

// IngestionService runs every enabled source concurrently, maps raw items
// and hands the events to the store. One source failing never affects the
// others; failures are reported in the result, not returned as errors.
type IngestionService struct {
	sources  []provider.Source
	mapper   ItemMapper
	store    EventStore
	pool     *worker.Pool
	observer FetchObserver
}

// NewIngestionService creates the coordinator. The source list is fixed at
// construction and results are reported in its order.
func NewIngestionService(
	sources []provider.Source,
	m ItemMapper,
	store EventStore,
	pool *worker.Pool,
	observer FetchObserver,
) *IngestionService {
	return &IngestionService{
		sources:  sources,
		mapper:   m,
		store:    store,
		pool:     pool,
		observer: observer,
	}
}

// Sources returns the configured sources.
func (s *IngestionService) Sources() []provider.Source {
	return s.sources
}

// IngestAll runs one ingestion pass over every enabled source.
func (s *IngestionService) IngestAll(ctx context.Context, params provider.Params) domain.IngestionResult {
	enabled := make([]provider.Source, 0, len(s.sources))
	for _, src := range s.sources {
		if src.Enabled() {
			enabled = append(enabled, src)
		} else {
			logger.Debug("Skipping disabled source", zap.String("source", src.Name()))
		}
	}
	return s.run(ctx, enabled, params)
}

// IngestSource runs one ingestion pass over the named source only, whether
// or not it is enabled for scheduled runs.
func (s *IngestionService) IngestSource(ctx context.Context, name string, params provider.Params) (domain.IngestionResult, error) {
	for _, src := range s.sources {
		if src.Name() == name {
			return s.run(ctx, []provider.Source{src}, params), nil
		}
	}
	return domain.IngestionResult{}, apperrors.ErrUnknownSource(name)
}

func (s *IngestionService) run(ctx context.Context, sources []provider.Source, params provider.Params) domain.IngestionResult {
	ctx, span := tracing.Tracer().Start(ctx, "ingestion.run",
		trace.WithAttributes(attribute.Int("ingestion.sources", len(sources))))
	defer span.End()

	started := time.Now()
	metrics.IngestionRuns.Inc()

	// Each task owns exactly one slot; nothing else is shared between tasks.
	results := make([]domain.SourceResult, len(sources))
	done := make([]bool, len(sources))

	group := s.pool.NewGroup()
	for i, src := range sources {
		i, src := i, src
		results[i] = domain.SourceResult{SourceName: src.Name(), Errors: []string{}}
		err := group.Go(ctx, func(ctx context.Context) {
			results[i] = s.ingestOne(ctx, src, params)
			done[i] = true
		})
		if err != nil {
			results[i] = fetchFailure(src.Name(), err)
			done[i] = true
		}
	}
	// ingestOne recovers its own panics; anything here escaped the task body.
	for _, perr := range group.Wait() {
		logger.Error("Ingestion task panic escaped recovery", zap.Error(perr))
	}

	for i := range results {
		if !done[i] {
			cause := ctx.Err()
			if cause == nil {
				cause = errors.New("task did not run")
			}
			results[i] = fetchFailure(sources[i].Name(), cause)
		}
	}

	out := domain.Aggregate(results)
	span.SetAttributes(
		attribute.Int("ingestion.processed", out.TotalProcessed),
		attribute.Int("ingestion.saved", out.TotalSaved),
		attribute.Int("ingestion.errors", len(out.Errors)),
	)
	metrics.IngestionDuration.Observe(time.Since(started).Seconds())
	logger.Info("Public data ingestion finished",
		zap.Int("sources", len(sources)),
		zap.Int("processed", out.TotalProcessed),
		zap.Int("saved", out.TotalSaved),
		zap.Int("errors", len(out.Errors)),
		zap.Duration("duration", time.Since(started)),
	)
	return out
}

// ingestOne never panics and never returns an error: every failure becomes
// part of the source's result.
func (s *IngestionService) ingestOne(ctx context.Context, src provider.Source, params provider.Params) (res domain.SourceResult) {
	name := src.Name()
	log := logger.ForSource(name)

	ctx, span := tracing.Tracer().Start(ctx, "ingestion.source",
		trace.WithAttributes(attribute.String("ingestion.source", name)))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			log.Error("Source ingestion panicked", zap.Any("panic", r), zap.Stack("stack"))
			err := fmt.Errorf("panic: %v", r)
			span.SetStatus(codes.Error, err.Error())
			res = fetchFailure(name, err)
			s.observe(name, err)
		}
	}()

	batch, err := src.Fetch(ctx, params)
	s.observe(name, err)
	if err != nil {
		log.Error("Failed to fetch public data", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return fetchFailure(name, err)
	}

	events, mapErrs, err := s.mapBatch(name, batch)
	if err != nil {
		log.Error("Unsupported batch", zap.Error(err))
		span.SetStatus(codes.Error, err.Error())
		return domain.SourceResult{SourceName: name, Errors: []string{err.Error()}}
	}
	processed := batch.Len()

	saved := 0
	if len(events) > 0 {
		saved = s.store.UpsertMany(ctx, events)
	}

	span.SetAttributes(
		attribute.Int("ingestion.processed", processed),
		attribute.Int("ingestion.saved", saved),
		attribute.Int("ingestion.mapping_errors", len(mapErrs)),
	)
	log.Info("Source ingestion finished",
		zap.Int("processed", processed),
		zap.Int("saved", saved),
		zap.Int("mapping_errors", len(mapErrs)),
	)
	return domain.SourceResult{
		SourceName: name,
		Processed:  processed,
		Saved:      saved,
		Errors:     mapErrs,
	}
}

// mapBatch maps every item of the batch. Items that fail to map are
// reported and skipped. A nil or unknown batch variant is an error.
func (s *IngestionService) mapBatch(name string, batch provider.Batch) ([]*domain.Event, []string, error) {
	mapErrs := []string{}

	switch b := batch.(type) {
	case provider.CultureBatch:
		events := make([]*domain.Event, 0, len(b.Items))
		for _, item := range b.Items {
			ev, err := s.mapper.MapCulture(item, name)
			metrics.RecordMapping(name, err)
			if err != nil {
				mapErrs = append(mapErrs, mappingFailure(item.Seq, err))
				continue
			}
			events = append(events, ev)
		}
		return events, mapErrs, nil

	case provider.CulturalBatch:
		events := make([]*domain.Event, 0, len(b.Items))
		for _, item := range b.Items {
			ev, err := s.mapper.MapCultural(item, name)
			metrics.RecordMapping(name, err)
			if err != nil {
				mapErrs = append(mapErrs, mappingFailure(item.LocalID, err))
				continue
			}
			events = append(events, ev)
		}
		return events, mapErrs, nil

	default:
		return nil, nil, fmt.Errorf("Unknown data source: %s", name)
	}
}

func (s *IngestionService) observe(source string, err error) {
	if s.observer != nil {
		s.observer.Record(source, err)
	}
}

func fetchFailure(name string, err error) domain.SourceResult {
	return domain.SourceResult{
		SourceName: name,
		Errors:     []string{fmt.Sprintf("Failed to fetch data from source %s: %v", name, err)},
	}
}

func mappingFailure(id *string, err error) string {
	itemID := domain.UnknownSourceEventID
	if id != nil {
		itemID = *id
	}
	return fmt.Sprintf("Failed to map item %s: %v", itemID, err)
}
