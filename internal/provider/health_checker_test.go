package provider

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHealthTracker(t *testing.T) {
	a := NewStaticSource("A", CultureBatch{})
	b := NewStaticSource("B", CulturalBatch{})
	tr := NewHealthTracker(a, b)
	fixed := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return fixed }

	assert.Equal(t, SourceStatusUnknown, tr.GetHealth("A").Status)

	tr.Record("A", nil)
	h := tr.GetHealth("A")
	assert.Equal(t, SourceStatusHealthy, h.Status)
	assert.Equal(t, fixed, h.LastChecked)
	assert.NotNil(t, h.LastSuccess)

	tr.Record("B", newSourceError("B", OpFetch, errors.New("dial tcp: refused")))
	tr.Record("B", newSourceError("B", OpFetch, errors.New("dial tcp: refused")))
	h = tr.GetHealth("B")
	assert.Equal(t, SourceStatusUnreachable, h.Status)
	assert.Equal(t, 2, h.ConsecutiveFailures)
	assert.Contains(t, h.Error, "refused")

	tr.Record("A", newSourceError("A", OpResultCode, &ResultCodeError{Code: "99", Message: "limit"}))
	assert.Equal(t, SourceStatusUnhealthy, tr.GetHealth("A").Status)

	tr.Record("A", nil)
	assert.Equal(t, 0, tr.GetHealth("A").ConsecutiveFailures)

	all := tr.All()
	assert.Len(t, all, 2)
	assert.Equal(t, "A", all[0].SourceName)
	assert.Equal(t, "B", all[1].SourceName)
}

func TestHealthTracker_NilSafe(t *testing.T) {
	var tr *HealthTracker
	assert.NotPanics(t, func() { tr.Record("A", nil) })
}
