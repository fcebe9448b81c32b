package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archive.alpha.io/archive/internal/domain"
)

const culturalOKBody = `{
  "response": {
    "header": {"resultCode": "0000", "resultMsg": "OK"},
    "body": {
      "items": {
        "item": [
          {"TITLE": "Running exhibition", "LOCAL_ID": "A1", "PERIOD": "2025-09-15 ~ 2026-03-15", "GENRE": "전시"},
          {"TITLE": "Ended exhibition", "LOCAL_ID": "A2", "PERIOD": "2025-03-01 ~ 2025-06-30"},
          {"TITLE": "Undated", "LOCAL_ID": "A3"},
          {"TITLE": "Event period only", "LOCAL_ID": "A4", "PERIOD": "상시", "EVENT_PERIOD": "2026.01.10"}
        ]
      }
    }
  }
}`

func newCulturalTestSource(t *testing.T, handler http.HandlerFunc) *CulturalSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	src, err := NewCulturalSource(CulturalSourceConfig{
		SourceConfig: SourceConfig{
			Enabled:    true,
			ServiceKey: "cultural-key",
			Client:     testClientConfig(srv.URL),
		},
	})
	require.NoError(t, err)
	return src
}

func TestCulturalSource_Fetch(t *testing.T) {
	src := newCulturalTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, culturalPath, r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "cultural-key", q.Get("serviceKey"))
		assert.Equal(t, "1", q.Get("pageNo"))
		assert.Equal(t, "9129", q.Get("numOfRows"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(culturalOKBody))
	})

	assert.Equal(t, domain.SourceCulturalDataPortal, src.Name())

	batch, err := src.Fetch(context.Background(), Params{})
	require.NoError(t, err)

	cb, ok := batch.(CulturalBatch)
	require.True(t, ok, "expected CulturalBatch, got %T", batch)

	ids := make([]string, 0, len(cb.Items))
	for _, item := range cb.Items {
		ids = append(ids, *item.LocalID)
	}
	assert.Equal(t, []string{"A1", "A4"}, ids)
}

func TestCulturalSource_ResultCodeFailure(t *testing.T) {
	src := newCulturalTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":{"header":{"resultCode":"0030","resultMsg":"key expired"},"body":{"items":{"item":[]}}}}`))
	})

	batch, err := src.Fetch(context.Background(), Params{})
	assert.Nil(t, batch)

	var serr *SourceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, OpResultCode, serr.Op)
	assert.Contains(t, err.Error(), "key expired")
}

func TestCulturalSource_DecodeFailure(t *testing.T) {
	src := newCulturalTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	})

	_, err := src.Fetch(context.Background(), Params{})
	var serr *SourceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, OpDecode, serr.Op)
}

func str(s string) *string { return &s }

func TestFilterByCutoff(t *testing.T) {
	tests := []struct {
		name        string
		period      *string
		eventPeriod *string
		keep        bool
	}{
		{"period after cutoff", str("2025-09-15 ~ 2026-03-15"), nil, true},
		{"period ends on cutoff", str("2025-09-15 ~ 2025-12-31"), nil, false},
		{"period before, event period after", str("2025-01-01 ~ 2025-02-01"), str("2026-01-05"), true},
		{"both before", str("2025-01-01~2025-02-01"), str("2025.11.30"), false},
		{"both missing", nil, nil, false},
		{"both unparseable", str("상시"), str("매일 10:00-18:00"), false},
		{"single date after", str("20260101"), nil, true},
		{"tight range", str("2025-09-16~2026-02-22"), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := []CulturalItem{{LocalID: str("x"), Period: tt.period, EventPeriod: tt.eventPeriod}}
			kept := FilterByCutoff(items, DefaultCulturalCutoff)
			assert.Equal(t, tt.keep, len(kept) == 1)
		})
	}
}

func TestFilterByCutoff_Custom(t *testing.T) {
	items := []CulturalItem{{Period: str("2024-05-01 ~ 2024-06-30")}}
	assert.Len(t, FilterByCutoff(items, day(2024, 6, 1)), 1)
	assert.Empty(t, FilterByCutoff(items, day(2024, 6, 30)))
	assert.NotNil(t, FilterByCutoff(nil, DefaultCulturalCutoff))
}
