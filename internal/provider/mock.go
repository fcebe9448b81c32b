package provider

import (
	"context"
	"sync"
)

// StaticSource is a Source returning a fixed batch or error. It backs the
// coordinator tests and the ingest CLI's dry-run mode.
type StaticSource struct {
	SourceName string
	Disabled   bool
	Batch      Batch
	Err        error
	// PanicWith makes Fetch panic with this value when non-nil.
	PanicWith interface{}

	mu     sync.Mutex
	calls  int
	params []Params
}

// NewStaticSource creates an enabled StaticSource returning batch.
func NewStaticSource(name string, batch Batch) *StaticSource {
	return &StaticSource{SourceName: name, Batch: batch}
}

// NewFailingSource creates an enabled StaticSource returning err.
func NewFailingSource(name string, err error) *StaticSource {
	return &StaticSource{SourceName: name, Err: err}
}

func (s *StaticSource) Name() string  { return s.SourceName }
func (s *StaticSource) Enabled() bool { return !s.Disabled }

func (s *StaticSource) Fetch(ctx context.Context, params Params) (Batch, error) {
	s.mu.Lock()
	s.calls++
	s.params = append(s.params, params)
	s.mu.Unlock()

	if s.PanicWith != nil {
		panic(s.PanicWith)
	}
	if err := ctx.Err(); err != nil {
		return nil, newSourceError(s.SourceName, OpFetch, err)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Batch, nil
}

// Calls returns how many times Fetch ran.
func (s *StaticSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// LastParams returns the params of the most recent Fetch.
func (s *StaticSource) LastParams() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.params) == 0 {
		return Params{}
	}
	return s.params[len(s.params)-1]
}
