// Package mapper converts raw provider records into canonical events.
//
// Mapping is pure: no I/O, no shared state. Best-effort extraction means a
// field that cannot be interpreted becomes nil rather than failing the item.
package mapper

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"archive.alpha.io/archive/internal/domain"
	"archive.alpha.io/archive/internal/provider"
)

// Mapper maps raw items of every provider.
type Mapper struct {
	culture  CategoryRules
	cultural CategoryRules
	now      func() time.Time
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithCultureDefault overrides the culture portal's fallback category.
func WithCultureDefault(c domain.Category) Option {
	return func(m *Mapper) {
		m.culture.MissingDefault = c
		m.culture.UnmatchedDefault = c
	}
}

// WithCulturalDefaults overrides the cultural portal's fallbacks for a
// missing genre and an unmatched genre.
func WithCulturalDefaults(missing, unmatched domain.Category) Option {
	return func(m *Mapper) {
		m.cultural.MissingDefault = missing
		m.cultural.UnmatchedDefault = unmatched
	}
}

// WithClock sets the ingestion timestamp source.
func WithClock(now func() time.Time) Option {
	return func(m *Mapper) { m.now = now }
}

// New creates a Mapper with the default per-provider rules.
func New(opts ...Option) *Mapper {
	m := &Mapper{
		culture:  CultureCategoryRules(),
		cultural: CulturalCategoryRules(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MapCulture maps a culture info portal record.
func (m *Mapper) MapCulture(item provider.CultureItem, source string) (*domain.Event, error) {
	raw, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("serialize raw payload: %w", err)
	}

	return &domain.Event{
		Source:        source,
		SourceEventID: orDefault(item.Seq, domain.UnknownSourceEventID),
		Title:         orDefault(item.Title, domain.UntitledPlaceholder),
		Category:      m.culture.Resolve(item.RealmName),
		StartAt:       parseDay(item.StartDate),
		EndAt:         parseDay(item.EndDate),
		Place: domain.Place{
			Name:      nonBlank(item.Place),
			City:      nonBlank(item.Area),
			District:  nonBlank(item.Sigungu),
			Latitude:  parseFloat(item.GpsY),
			Longitude: parseFloat(item.GpsX),
		},
		Meta: domain.AudienceMeta{
			ImageURL: nonBlank(item.Thumbnail),
		},
		Status:     domain.EventStatusActive,
		RawPayload: raw,
		IngestedAt: m.now(),
	}, nil
}

// MapCultural maps a cultural event portal record.
func (m *Mapper) MapCultural(item provider.CulturalItem, source string) (*domain.Event, error) {
	raw, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("serialize raw payload: %w", err)
	}

	period := culturalPeriod(item)
	var start, end *time.Time
	if period.Start != nil {
		s := *period.Start
		start = &s
	}
	if period.End != nil {
		e := endOfDay(*period.End)
		end = &e
	}

	placeName := nonBlank(item.EventSite)
	if placeName == nil {
		placeName = nonBlank(item.ContactInstitutionName)
	}

	return &domain.Event{
		Source:        source,
		SourceEventID: orDefault(item.LocalID, domain.UnknownSourceEventID),
		Title:         orDefault(item.Title, domain.UntitledPlaceholder),
		Description:   culturalDescription(item),
		Category:      m.cultural.Resolve(item.Genre),
		StartAt:       start,
		EndAt:         end,
		Place: domain.Place{
			Name:     placeName,
			Address:  nonBlank(item.SpatialCoverage),
			City:     CityFromInstitution(item.ContactInstitutionName),
			Phone:    nonBlank(item.ContactPoint),
			Homepage: nonBlank(item.URL),
		},
		Meta: domain.AudienceMeta{
			PriceText: nonBlank(item.Charge),
			Audience:  nonBlank(item.Audience),
			Contact:   nonBlank(item.ContactPoint),
			URL:       nonBlank(item.URL),
			ImageURL:  nonBlank(item.ImageObject),
		},
		Status:     domain.EventStatusActive,
		RawPayload: raw,
		IngestedAt: m.now(),
	}, nil
}

// culturalPeriod prefers PERIOD and falls back to EVENT_PERIOD when PERIOD
// yields neither bound.
func culturalPeriod(item provider.CulturalItem) provider.Period {
	if item.Period != nil {
		if p := provider.ParsePeriod(*item.Period); !p.Empty() {
			return p
		}
	}
	if item.EventPeriod != nil {
		return provider.ParsePeriod(*item.EventPeriod)
	}
	return provider.Period{}
}

func culturalDescription(item provider.CulturalItem) *string {
	parts := make([]string, 0, 3)
	if s := nonBlank(item.Description); s != nil {
		parts = append(parts, *s)
	}
	if s := nonBlank(item.SubDescription); s != nil {
		parts = append(parts, *s)
	}
	if s := nonBlank(item.EventPeriod); s != nil {
		parts = append(parts, "운영시간: "+*s)
	}
	if len(parts) == 0 {
		return nil
	}
	joined := strings.Join(parts, "\n\n")
	return &joined
}

func endOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, d.Location())
}

func parseDay(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, ok := provider.ParseDate(*s, provider.CompactDateLayouts...)
	if !ok {
		return nil
	}
	return &t
}

func parseFloat(s *string) *float64 {
	if s == nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(*s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func nonBlank(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func orDefault(s *string, def string) string {
	if v := nonBlank(s); v != nil {
		return strings.TrimSpace(*v)
	}
	return def
}
