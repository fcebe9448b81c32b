// Package domain provides the canonical public-event model.
//
// Every upstream provider record is normalized into an Event before it
// reaches storage; nothing outside internal/provider and internal/mapper
// knows about provider-native shapes.
//
// Import Path: archive.alpha.io/archive/internal/domain
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventStatus is the lifecycle state of a public event row.
type EventStatus string

const (
	EventStatusActive   EventStatus = "ACTIVE"
	EventStatusInactive EventStatus = "INACTIVE"
	EventStatusArchived EventStatus = "ARCHIVED"
)

// UntitledPlaceholder replaces a missing upstream title.
const UntitledPlaceholder = "제목 없음"

// UnknownSourceEventID replaces a missing upstream identifier.
const UnknownSourceEventID = "unknown"

// Place describes where an event happens. Every field is optional and
// provenance differs per source.
type Place struct {
	Name      *string  `json:"name,omitempty"`
	Address   *string  `json:"address,omitempty"`
	City      *string  `json:"city,omitempty"`
	District  *string  `json:"district,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Phone     *string  `json:"phone,omitempty"`
	Homepage  *string  `json:"homepage,omitempty"`
}

// AudienceMeta carries visitor-facing details.
type AudienceMeta struct {
	PriceText *string `json:"price_text,omitempty"`
	Audience  *string `json:"audience,omitempty"`
	Contact   *string `json:"contact,omitempty"`
	URL       *string `json:"url,omitempty"`
	ImageURL  *string `json:"image_url,omitempty"`
}

// NaturalKey identifies one real-world event across ingestion runs.
type NaturalKey struct {
	Source        string
	SourceEventID string
}

func (k NaturalKey) String() string {
	return k.Source + ":" + k.SourceEventID
}

// Event is the canonical, persisted public event.
//
// StartAt/EndAt nil means "unknown", not "unbounded".
type Event struct {
	ID            string       `json:"id"`
	Source        string       `json:"source"`
	SourceEventID string       `json:"source_event_id"`
	Title         string       `json:"title"`
	Description   *string      `json:"description,omitempty"`
	Category      Category     `json:"category"`
	StartAt       *time.Time   `json:"start_at,omitempty"`
	EndAt         *time.Time   `json:"end_at,omitempty"`
	Place         Place        `json:"place"`
	Meta          AudienceMeta `json:"meta"`
	Status        EventStatus  `json:"status"`
	RawPayload    []byte       `json:"-"`
	IngestedAt    time.Time    `json:"ingested_at"`
	DeletedAt     *time.Time   `json:"deleted_at,omitempty"`
}

// Key returns the event's natural key.
func (e *Event) Key() NaturalKey {
	return NaturalKey{Source: e.Source, SourceEventID: e.SourceEventID}
}

// MateriallyDiffers reports whether incoming differs from e in any field that
// warrants rewriting a stored row: title, start, end, or place name.
// Drift in other fields (description, price, ...) alone does not count.
func (e *Event) MateriallyDiffers(incoming *Event) bool {
	return e.Title != incoming.Title ||
		!timeEqual(e.StartAt, incoming.StartAt) ||
		!timeEqual(e.EndAt, incoming.EndAt) ||
		!stringEqual(e.Place.Name, incoming.Place.Name)
}

// Validate checks the invariants every mapped event must hold before storage.
func (e *Event) Validate() error {
	switch {
	case e.Source == "":
		return fmt.Errorf("event source is empty")
	case e.SourceEventID == "":
		return fmt.Errorf("event %s: source event id is empty", e.Source)
	case e.Title == "":
		return fmt.Errorf("event %s: title is empty", e.Key())
	case !e.Category.Valid():
		return fmt.Errorf("event %s: invalid category %q", e.Key(), e.Category)
	case len(e.RawPayload) == 0:
		return fmt.Errorf("event %s: raw payload is empty", e.Key())
	}
	return nil
}

// NewEventID returns a time-ordered (UUIDv7) identifier. Later ids sort
// after earlier ones, which the read path relies on for cursor paging.
func NewEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func timeEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func stringEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ListFilter selects active events on the read path.
type ListFilter struct {
	// Cursor is the id of the last event of the previous page; empty starts
	// from the newest event.
	Cursor   string
	Size     int
	Location string
	Title    string
	Category Category
}

// EventPage is one cursor page of events, newest first.
type EventPage struct {
	Items      []*Event `json:"items"`
	NextCursor string   `json:"next_cursor,omitempty"`
	HasNext    bool     `json:"has_next"`
	TotalCount int64    `json:"total_count"`
}
