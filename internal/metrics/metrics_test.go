package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSourceFetch(t *testing.T) {
	okBefore := testutil.ToFloat64(SourceFetchTotal.WithLabelValues("TEST_SRC", "success"))
	failBefore := testutil.ToFloat64(SourceFetchTotal.WithLabelValues("TEST_SRC", "failure"))
	itemsBefore := testutil.ToFloat64(SourceItemsFetched.WithLabelValues("TEST_SRC"))

	RecordSourceFetch("TEST_SRC", 20*time.Millisecond, 5, nil)
	RecordSourceFetch("TEST_SRC", time.Second, 0, errors.New("boom"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(SourceFetchTotal.WithLabelValues("TEST_SRC", "success")))
	assert.Equal(t, failBefore+1, testutil.ToFloat64(SourceFetchTotal.WithLabelValues("TEST_SRC", "failure")))
	assert.Equal(t, itemsBefore+5, testutil.ToFloat64(SourceItemsFetched.WithLabelValues("TEST_SRC")))
}

func TestRecordUpsertAndMapping(t *testing.T) {
	before := testutil.ToFloat64(EventUpserts.WithLabelValues("skipped"))
	RecordUpsert("skipped")
	assert.Equal(t, before+1, testutil.ToFloat64(EventUpserts.WithLabelValues("skipped")))

	mapFail := testutil.ToFloat64(ItemsMapped.WithLabelValues("TEST_SRC", "failure"))
	RecordMapping("TEST_SRC", errors.New("bad"))
	assert.Equal(t, mapFail+1, testutil.ToFloat64(ItemsMapped.WithLabelValues("TEST_SRC", "failure")))
}

func TestRecordWorkerPools(t *testing.T) {
	RecordWorkerPools(map[string]map[string]int{"fetch": {"running": 3, "capacity": 8}})
	assert.Equal(t, float64(3), testutil.ToFloat64(WorkerPoolRunning.WithLabelValues("fetch")))
}

func TestHandler(t *testing.T) {
	IngestionRuns.Inc()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "archive_ingestion_runs_total"))
}
