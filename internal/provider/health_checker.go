package provider

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// SourceStatus represents the last observed health of an upstream source.
type SourceStatus string

const (
	SourceStatusUnknown     SourceStatus = "UNKNOWN"
	SourceStatusHealthy     SourceStatus = "HEALTHY"
	SourceStatusUnhealthy   SourceStatus = "UNHEALTHY"
	SourceStatusUnreachable SourceStatus = "UNREACHABLE"
)

// SourceHealth contains the outcome of the most recent fetch of a source.
type SourceHealth struct {
	SourceName          string       `json:"source_name"`
	Status              SourceStatus `json:"status"`
	BreakerState        string       `json:"breaker_state,omitempty"`
	LastChecked         time.Time    `json:"last_checked"`
	LastSuccess         *time.Time   `json:"last_success,omitempty"`
	ConsecutiveFailures int          `json:"consecutive_failures"`
	Error               string       `json:"error,omitempty"`
}

type breakerReporter interface {
	BreakerState() string
}

// HealthTracker records fetch outcomes reported by the ingestion coordinator.
// Sources are probed by real ingestion runs only; public portals meter calls
// per service key.
type HealthTracker struct {
	mu      sync.RWMutex
	results map[string]*SourceHealth
	sources map[string]Source
	now     func() time.Time
}

// NewHealthTracker creates a tracker for the given sources.
func NewHealthTracker(sources ...Source) *HealthTracker {
	t := &HealthTracker{
		results: make(map[string]*SourceHealth),
		sources: make(map[string]Source, len(sources)),
		now:     time.Now,
	}
	for _, s := range sources {
		t.sources[s.Name()] = s
	}
	return t
}

// Record stores the outcome of one fetch.
func (t *HealthTracker) Record(source string, err error) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	h, ok := t.results[source]
	if !ok {
		h = &SourceHealth{SourceName: source}
		t.results[source] = h
	}
	h.LastChecked = now
	if err == nil {
		h.Status = SourceStatusHealthy
		h.LastSuccess = &now
		h.ConsecutiveFailures = 0
		h.Error = ""
		return
	}

	h.ConsecutiveFailures++
	h.Error = err.Error()
	h.Status = SourceStatusUnhealthy
	var se *SourceError
	if errors.As(err, &se) && se.Op == OpFetch {
		h.Status = SourceStatusUnreachable
	}
}

// GetHealth returns a copy of the health of one source.
func (t *HealthTracker) GetHealth(source string) SourceHealth {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := SourceHealth{SourceName: source, Status: SourceStatusUnknown}
	if h, ok := t.results[source]; ok {
		out = *h
	}
	if s, ok := t.sources[source]; ok {
		if b, ok := s.(breakerReporter); ok {
			out.BreakerState = b.BreakerState()
		}
	}
	return out
}

// All returns the health of every known source, sorted by name.
func (t *HealthTracker) All() []SourceHealth {
	t.mu.RLock()
	names := make(map[string]struct{}, len(t.sources)+len(t.results))
	for n := range t.sources {
		names[n] = struct{}{}
	}
	for n := range t.results {
		names[n] = struct{}{}
	}
	t.mu.RUnlock()

	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	out := make([]SourceHealth, 0, len(sorted))
	for _, n := range sorted {
		out = append(out, t.GetHealth(n))
	}
	return out
}
