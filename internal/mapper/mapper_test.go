package mapper

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archive.alpha.io/archive/internal/domain"
	"archive.alpha.io/archive/internal/provider"
)

func s(v string) *string { return &v }

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestMapper(opts ...Option) *Mapper {
	return New(append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

func TestMapCulture(t *testing.T) {
	item := provider.CultureItem{
		Seq:       s("301"),
		Title:     s("겨울 연극제"),
		StartDate: s("20260105"),
		EndDate:   s("2026-01-31"),
		Place:     s("대학로 극장"),
		RealmName: s("연극"),
		Area:      s("서울"),
		Sigungu:   s("종로구"),
		Thumbnail: s("http://img.example/301.jpg"),
		GpsX:      s("126.98"),
		GpsY:      s("37.58"),
	}

	ev, err := newTestMapper().MapCulture(item, domain.SourceCultureDataPortal)
	require.NoError(t, err)
	require.NoError(t, ev.Validate())

	assert.Equal(t, domain.SourceCultureDataPortal, ev.Source)
	assert.Equal(t, "301", ev.SourceEventID)
	assert.Equal(t, "겨울 연극제", ev.Title)
	assert.Nil(t, ev.Description)
	assert.Equal(t, domain.CategoryTheater, ev.Category)
	require.NotNil(t, ev.StartAt)
	assert.True(t, time.Date(2026, 1, 5, 0, 0, 0, 0, provider.Seoul).Equal(*ev.StartAt))
	require.NotNil(t, ev.EndAt)
	assert.True(t, time.Date(2026, 1, 31, 0, 0, 0, 0, provider.Seoul).Equal(*ev.EndAt))
	assert.Equal(t, "대학로 극장", *ev.Place.Name)
	assert.Equal(t, "서울", *ev.Place.City)
	assert.Equal(t, "종로구", *ev.Place.District)
	assert.InDelta(t, 37.58, *ev.Place.Latitude, 1e-9)
	assert.InDelta(t, 126.98, *ev.Place.Longitude, 1e-9)
	assert.Equal(t, "http://img.example/301.jpg", *ev.Meta.ImageURL)
	assert.Equal(t, domain.EventStatusActive, ev.Status)
	assert.Equal(t, fixedNow, ev.IngestedAt)
	assert.Empty(t, ev.ID)

	var raw map[string]string
	require.NoError(t, json.Unmarshal(ev.RawPayload, &raw))
	assert.Equal(t, "301", raw["seq"])
	assert.Equal(t, "126.98", raw["gpsX"])
}

func TestMapCulture_MissingFields(t *testing.T) {
	ev, err := newTestMapper().MapCulture(provider.CultureItem{
		StartDate: s("next week"),
		GpsX:      s("east"),
		GpsY:      s("NaN"),
	}, domain.SourceCultureDataPortal)
	require.NoError(t, err)

	assert.Equal(t, domain.UnknownSourceEventID, ev.SourceEventID)
	assert.Equal(t, domain.UntitledPlaceholder, ev.Title)
	assert.Equal(t, domain.CategoryOther, ev.Category)
	assert.Nil(t, ev.StartAt)
	assert.Nil(t, ev.EndAt)
	assert.Nil(t, ev.Place.Latitude)
	assert.Nil(t, ev.Place.Longitude)
	assert.Nil(t, ev.Place.Name)
	assert.NotEmpty(t, ev.RawPayload)
	require.NoError(t, ev.Validate())
}

func TestMapCultural(t *testing.T) {
	item := provider.CulturalItem{
		Title:                  s("빛의 정원"),
		ContactInstitutionName: s("부산시립미술관"),
		Description:            s("미디어아트 전시"),
		SubDescription:         s("  "),
		ImageObject:            s("http://img.example/a1.png"),
		LocalID:                s("A1"),
		URL:                    s("http://museum.example"),
		SpatialCoverage:        s("부산 해운대구 APEC로 58"),
		Genre:                  s("미디어 전시"),
		ContactPoint:           s("051-000-0000"),
		Audience:               s("전체관람가"),
		Charge:                 s("무료"),
		Period:                 s("2025-09-15 ~ 2026-03-15"),
		EventPeriod:            s("10:00~18:00"),
	}

	ev, err := newTestMapper().MapCultural(item, domain.SourceCulturalDataPortal)
	require.NoError(t, err)
	require.NoError(t, ev.Validate())

	assert.Equal(t, "A1", ev.SourceEventID)
	assert.Equal(t, domain.CategoryExhibition, ev.Category)
	require.NotNil(t, ev.Description)
	assert.Equal(t, "미디어아트 전시\n\n운영시간: 10:00~18:00", *ev.Description)

	require.NotNil(t, ev.StartAt)
	assert.True(t, time.Date(2025, 9, 15, 0, 0, 0, 0, provider.Seoul).Equal(*ev.StartAt))
	require.NotNil(t, ev.EndAt)
	assert.True(t, time.Date(2026, 3, 15, 23, 59, 59, 0, provider.Seoul).Equal(*ev.EndAt))

	assert.Equal(t, "부산시립미술관", *ev.Place.Name)
	assert.Equal(t, "부산 해운대구 APEC로 58", *ev.Place.Address)
	assert.Equal(t, "부산", *ev.Place.City)
	assert.Nil(t, ev.Place.District)
	assert.Nil(t, ev.Place.Latitude)
	assert.Equal(t, "051-000-0000", *ev.Place.Phone)
	assert.Equal(t, "http://museum.example", *ev.Place.Homepage)

	assert.Equal(t, "무료", *ev.Meta.PriceText)
	assert.Equal(t, "전체관람가", *ev.Meta.Audience)
	assert.Equal(t, "051-000-0000", *ev.Meta.Contact)
	assert.Equal(t, "http://museum.example", *ev.Meta.URL)
	assert.Equal(t, "http://img.example/a1.png", *ev.Meta.ImageURL)

	var raw map[string]string
	require.NoError(t, json.Unmarshal(ev.RawPayload, &raw))
	assert.Equal(t, "A1", raw["LOCAL_ID"])
	assert.Equal(t, "  ", raw["SUB_DESCRIPTION"])
}

func TestMapCultural_PeriodFallback(t *testing.T) {
	tests := []struct {
		name        string
		period      *string
		eventPeriod *string
		wantStart   *time.Time
		wantEnd     *time.Time
	}{
		{
			name:      "period wins",
			period:    s("2026-01-01 ~ 2026-01-31"),
			wantStart: tp(time.Date(2026, 1, 1, 0, 0, 0, 0, provider.Seoul)),
			wantEnd:   tp(time.Date(2026, 1, 31, 23, 59, 59, 0, provider.Seoul)),
		},
		{
			name:        "unparseable period falls back",
			period:      s("상시"),
			eventPeriod: s("2026.02.01~2026.02.10"),
			wantStart:   tp(time.Date(2026, 2, 1, 0, 0, 0, 0, provider.Seoul)),
			wantEnd:     tp(time.Date(2026, 2, 10, 23, 59, 59, 0, provider.Seoul)),
		},
		{
			name:      "single date is both bounds",
			period:    s("20260301"),
			wantStart: tp(time.Date(2026, 3, 1, 0, 0, 0, 0, provider.Seoul)),
			wantEnd:   tp(time.Date(2026, 3, 1, 23, 59, 59, 0, provider.Seoul)),
		},
		{
			name: "nothing parseable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := newTestMapper().MapCultural(provider.CulturalItem{
				LocalID:     s("P"),
				Period:      tt.period,
				EventPeriod: tt.eventPeriod,
			}, domain.SourceCulturalDataPortal)
			require.NoError(t, err)
			assertTime(t, tt.wantStart, ev.StartAt)
			assertTime(t, tt.wantEnd, ev.EndAt)
		})
	}
}

func TestMapCultural_PlaceAndDescriptionFallbacks(t *testing.T) {
	ev, err := newTestMapper().MapCultural(provider.CulturalItem{
		EventSite:              s("야외 광장"),
		ContactInstitutionName: s("국립중앙박물관"),
	}, domain.SourceCulturalDataPortal)
	require.NoError(t, err)

	assert.Equal(t, "야외 광장", *ev.Place.Name)
	assert.Nil(t, ev.Place.City)
	assert.Nil(t, ev.Description)
	assert.Equal(t, domain.CategoryExhibition, ev.Category, "missing genre")
	assert.Equal(t, domain.UntitledPlaceholder, ev.Title)
	assert.Equal(t, domain.UnknownSourceEventID, ev.SourceEventID)
}

func TestMapper_ConfiguredDefaults(t *testing.T) {
	m := newTestMapper(
		WithCultureDefault(domain.CategoryFestival),
		WithCulturalDefaults(domain.CategoryOther, domain.CategoryHobby),
	)

	ev, err := m.MapCulture(provider.CultureItem{RealmName: s("기타")}, domain.SourceCultureDataPortal)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryFestival, ev.Category)

	ev, err = m.MapCultural(provider.CulturalItem{}, domain.SourceCulturalDataPortal)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryOther, ev.Category)

	ev, err = m.MapCultural(provider.CulturalItem{Genre: s("보드게임")}, domain.SourceCulturalDataPortal)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryHobby, ev.Category)
}

func tp(t time.Time) *time.Time { return &t }

func assertTime(t *testing.T, want, got *time.Time) {
	t.Helper()
	if want == nil {
		assert.Nil(t, got)
		return
	}
	require.NotNil(t, got)
	assert.True(t, want.Equal(*got), "want %s got %s", want, got)
}
