// Package provider contains the upstream public-data Source Adapters.
//
// An adapter talks to exactly one provider: it builds the request, checks the
// provider's result code, decodes the envelope and returns the raw items as a
// typed Batch. Adapters never persist anything and never return a partial
// item list together with an error.
//
// Import Path: archive.alpha.io/archive/internal/provider
package provider

import (
	"context"
	"errors"
	"fmt"

	apperrors "archive.alpha.io/archive/internal/pkg/errors"
)

// Source is one upstream public-data provider.
type Source interface {
	// Name is the stable source identifier, e.g. CULTURE_DATA_PORTAL.
	Name() string
	// Enabled reports whether the coordinator should run this source.
	Enabled() bool
	// Fetch retrieves one page of raw items.
	Fetch(ctx context.Context, params Params) (Batch, error)
}

// Batch is the raw item list of one fetch. The set of variants is closed;
// consumers type-switch on it.
type Batch interface {
	Len() int
	isBatch()
}

// CultureBatch holds items from the XML culture info portal.
type CultureBatch struct {
	Items []CultureItem
}

func (b CultureBatch) Len() int { return len(b.Items) }
func (CultureBatch) isBatch()   {}

// CulturalBatch holds items from the JSON cultural event portal.
type CulturalBatch struct {
	Items []CulturalItem
}

func (b CulturalBatch) Len() int { return len(b.Items) }
func (CulturalBatch) isBatch()   {}

// Params are the request parameters of a fetch. Zero values fall back to
// the source's defaults; sources ignore parameters they do not support.
type Params struct {
	PageNo    int    `json:"pageNo,omitempty" form:"pageNo"`
	NumOfRows int    `json:"numOfRows,omitempty" form:"numOfRows"`
	From      string `json:"from,omitempty" form:"from"`
	To        string `json:"to,omitempty" form:"to"`
	ServiceTp string `json:"serviceTp,omitempty" form:"serviceTp"`
	Sigungu   string `json:"sigungu,omitempty" form:"sigungu"`
}

// Validate rejects negative paging values.
func (p Params) Validate() error {
	if p.PageNo < 0 {
		return fmt.Errorf("pageNo must not be negative: %d", p.PageNo)
	}
	if p.NumOfRows < 0 {
		return fmt.Errorf("numOfRows must not be negative: %d", p.NumOfRows)
	}
	return nil
}

func (p Params) withDefaults(pageNo, numOfRows int) Params {
	if p.PageNo == 0 {
		p.PageNo = pageNo
	}
	if p.NumOfRows == 0 {
		p.NumOfRows = numOfRows
	}
	return p
}

// Failure stages of a fetch.
const (
	OpFetch      = "fetch"
	OpStatus     = "status"
	OpDecode     = "decode"
	OpResultCode = "result_code"
)

// SourceError is the single error type returned by adapters.
type SourceError struct {
	Source string
	Op     string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Source, e.Op, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Code maps the failure stage to an application error code.
func (e *SourceError) Code() string {
	switch e.Op {
	case OpDecode:
		return apperrors.CodeSourceDecodeFailed
	case OpResultCode:
		return apperrors.CodeSourceResultCode
	}
	if errors.Is(e.Err, ErrCircuitOpen) {
		return apperrors.CodeSourceUnavailable
	}
	return apperrors.CodeSourceFetchFailed
}

// AsAppError converts the failure for HTTP rendering.
func (e *SourceError) AsAppError() *apperrors.AppError {
	return apperrors.BadGateway(e.Code(), e.Error()).
		WithParams(map[string]interface{}{"source": e.Source, "op": e.Op})
}

func newSourceError(source, op string, err error) *SourceError {
	return &SourceError{Source: source, Op: op, Err: err}
}

// ResultCodeError reports a provider-level failure signalled in the envelope.
type ResultCodeError struct {
	Code    string
	Message string
}

func (e *ResultCodeError) Error() string {
	return fmt.Sprintf("API error (resultCode=%s): %s", e.Code, e.Message)
}
