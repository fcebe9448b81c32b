package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"archive.alpha.io/archive/internal/domain"
	apperrors "archive.alpha.io/archive/internal/pkg/errors"
)

// MemoryEventStore is an in-memory event store with the same dedup rules as
// the PostgreSQL store. Safe for concurrent use.
type MemoryEventStore struct {
	mu     sync.Mutex
	byKey  map[domain.NaturalKey]*domain.Event
	writes int

	// FailFor makes Upsert fail for events it returns true for.
	FailFor func(e *domain.Event) bool
}

// NewMemoryEventStore creates an empty store.
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{byKey: make(map[domain.NaturalKey]*domain.Event)}
}

// Seed stores events as-is, assigning ids where missing.
func (s *MemoryEventStore) Seed(events ...*domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range events {
		cp := *e
		if cp.ID == "" {
			cp.ID = domain.NewEventID()
		}
		if cp.Status == "" {
			cp.Status = domain.EventStatusActive
		}
		s.byKey[cp.Key()] = &cp
	}
}

func (s *MemoryEventStore) Upsert(_ context.Context, e *domain.Event) (domain.UpsertOutcome, error) {
	if s.FailFor != nil && s.FailFor(e) {
		return domain.UpsertSkipped, apperrors.Internal(apperrors.CodeEventPersistFailed, "injected failure")
	}
	if err := e.Validate(); err != nil {
		return domain.UpsertSkipped, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byKey[e.Key()]
	if !ok {
		cp := *e
		if cp.ID == "" {
			cp.ID = domain.NewEventID()
		}
		e.ID = cp.ID
		s.byKey[e.Key()] = &cp
		s.writes++
		return domain.UpsertInserted, nil
	}
	if !existing.MateriallyDiffers(e) {
		return domain.UpsertSkipped, nil
	}
	cp := *e
	cp.ID = existing.ID
	e.ID = existing.ID
	s.byKey[e.Key()] = &cp
	s.writes++
	return domain.UpsertUpdated, nil
}

func (s *MemoryEventStore) UpsertMany(ctx context.Context, events []*domain.Event) int {
	saved := 0
	for _, e := range events {
		outcome, err := s.Upsert(ctx, e)
		if err == nil && outcome.Saved() {
			saved++
		}
	}
	return saved
}

func (s *MemoryEventStore) GetByNaturalKey(_ context.Context, key domain.NaturalKey) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byKey[key]
	if !ok {
		return nil, apperrors.ErrEventNotFound(key.String())
	}
	cp := *e
	return &cp, nil
}

func (s *MemoryEventStore) GetByID(_ context.Context, id string) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.byKey {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, apperrors.ErrEventNotFound(id)
}

// ListActive pages ACTIVE events by id descending. Only Cursor, Size and
// Category are honoured.
func (s *MemoryEventStore) ListActive(_ context.Context, f domain.ListFilter) (*domain.EventPage, error) {
	all := s.active(f.Category)
	total := int64(len(all))
	if f.Cursor != "" {
		i := sort.Search(len(all), func(i int) bool { return all[i].ID < f.Cursor })
		all = all[i:]
	}
	size := f.Size
	if size <= 0 {
		size = 20
	}
	page := &domain.EventPage{Items: all, TotalCount: total}
	if len(all) > size {
		page.Items = all[:size]
		page.HasNext = true
		page.NextCursor = page.Items[size-1].ID
	}
	return page, nil
}

func (s *MemoryEventStore) CountActive(_ context.Context, f domain.ListFilter) (int64, error) {
	return int64(len(s.active(f.Category))), nil
}

func (s *MemoryEventStore) ArchiveEnded(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, e := range s.byKey {
		if e.Status == domain.EventStatusActive && e.EndAt != nil && e.EndAt.Before(before) {
			e.Status = domain.EventStatusArchived
			n++
		}
	}
	return n, nil
}

func (s *MemoryEventStore) Ping(context.Context) error { return nil }

// Len returns the number of stored rows.
func (s *MemoryEventStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byKey)
}

// Writes returns how many inserts and updates were applied.
func (s *MemoryEventStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *MemoryEventStore) active(c domain.Category) []*domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Event, 0, len(s.byKey))
	for _, e := range s.byKey {
		if e.Status != domain.EventStatusActive {
			continue
		}
		if c != "" && e.Category != c {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}
