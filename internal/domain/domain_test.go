package domain

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func baseEvent() *Event {
	start := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC)
	return &Event{
		Source:        SourceCultureDataPortal,
		SourceEventID: "1001",
		Title:         "Winter Exhibition",
		Category:      CategoryExhibition,
		StartAt:       &start,
		EndAt:         &end,
		Place:         Place{Name: strPtr("City Gallery")},
		Status:        EventStatusActive,
		RawPayload:    []byte(`{"seq":"1001"}`),
	}
}

func TestEvent_MateriallyDiffers(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *Event)
		want   bool
	}{
		{"identical", func(e *Event) {}, false},
		{"title changed", func(e *Event) { e.Title = "Spring Exhibition" }, true},
		{"start changed", func(e *Event) { e.StartAt = timePtr(e.StartAt.AddDate(0, 0, 1)) }, true},
		{"start removed", func(e *Event) { e.StartAt = nil }, true},
		{"end changed", func(e *Event) { e.EndAt = timePtr(e.EndAt.Add(time.Second)) }, true},
		{"place name changed", func(e *Event) { e.Place.Name = strPtr("Museum") }, true},
		{"place name removed", func(e *Event) { e.Place.Name = nil }, true},
		{"description only", func(e *Event) { e.Description = strPtr("new text") }, false},
		{"price only", func(e *Event) { e.Meta.PriceText = strPtr("free") }, false},
		{"category only", func(e *Event) { e.Category = CategoryOther }, false},
		{"same instant other zone", func(e *Event) {
			e.StartAt = timePtr(e.StartAt.In(time.FixedZone("KST", 9*3600)))
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing := baseEvent()
			incoming := baseEvent()
			tt.mutate(incoming)
			assert.Equal(t, tt.want, existing.MateriallyDiffers(incoming))
		})
	}
}

func TestEvent_Validate(t *testing.T) {
	require.NoError(t, baseEvent().Validate())

	tests := []struct {
		name   string
		mutate func(e *Event)
	}{
		{"no source", func(e *Event) { e.Source = "" }},
		{"no source id", func(e *Event) { e.SourceEventID = "" }},
		{"no title", func(e *Event) { e.Title = "" }},
		{"bad category", func(e *Event) { e.Category = "KARAOKE" }},
		{"empty category", func(e *Event) { e.Category = "" }},
		{"no payload", func(e *Event) { e.RawPayload = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := baseEvent()
			tt.mutate(e)
			assert.Error(t, e.Validate())
		})
	}
}

func TestNaturalKey(t *testing.T) {
	e := baseEvent()
	assert.Equal(t, NaturalKey{Source: SourceCultureDataPortal, SourceEventID: "1001"}, e.Key())
	assert.Equal(t, "CULTURE_DATA_PORTAL:1001", e.Key().String())
}

func TestNewEventID_TimeOrdered(t *testing.T) {
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = NewEventID()
		if i%10 == 0 {
			time.Sleep(2 * time.Millisecond)
		}
	}
	assert.True(t, sort.StringsAreSorted(ids), "UUIDv7 ids must sort by creation order")
}

func TestCategory(t *testing.T) {
	for _, c := range Categories() {
		assert.True(t, c.Valid(), c)
		assert.NotEmpty(t, c.DisplayName(), c)
	}
	assert.Len(t, Categories(), len(categoryDisplayNames))

	c, ok := ParseCategory(" exhibition ")
	assert.True(t, ok)
	assert.Equal(t, CategoryExhibition, c)

	_, ok = ParseCategory("karaoke")
	assert.False(t, ok)
	assert.False(t, Category("").Valid())
}

func TestAggregate(t *testing.T) {
	res := Aggregate([]SourceResult{
		{SourceName: "A", Processed: 3, Saved: 2, Errors: []string{"Failed to map item 7: bad"}},
		{SourceName: "B", Processed: 0, Saved: 0, Errors: []string{"Failed to fetch data from source B: timeout"}},
		{SourceName: "C", Processed: 4, Saved: 0},
	})

	assert.Equal(t, 7, res.TotalProcessed)
	assert.Equal(t, 2, res.TotalSaved)
	assert.Len(t, res.SourceResults, 3)
	assert.Equal(t, []string{
		"Failed to map item 7: bad",
		"Failed to fetch data from source B: timeout",
	}, res.Errors)
	assert.NotNil(t, res.SourceResults[2].Errors)

	empty := Aggregate(nil)
	assert.NotNil(t, empty.Errors)
	assert.NotNil(t, empty.SourceResults)
}

func TestUpsertOutcome(t *testing.T) {
	assert.Equal(t, "inserted", UpsertInserted.String())
	assert.Equal(t, "updated", UpsertUpdated.String())
	assert.Equal(t, "skipped", UpsertSkipped.String())
	assert.True(t, UpsertInserted.Saved())
	assert.True(t, UpsertUpdated.Saved())
	assert.False(t, UpsertSkipped.Saved())
}
