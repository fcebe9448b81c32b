package handlers

import "archive.alpha.io/archive/internal/domain"

// publicEvent is the read API view of an event.
type publicEvent struct {
	*domain.Event
	CategoryName string `json:"category_name"`
}

type publicEventPage struct {
	Items      []publicEvent `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
	HasNext    bool          `json:"has_next"`
	TotalCount int64         `json:"total_count"`
}

func toPublicEvent(e *domain.Event) publicEvent {
	return publicEvent{Event: e, CategoryName: e.Category.DisplayName()}
}

func toPublicEventPage(p *domain.EventPage) publicEventPage {
	out := publicEventPage{
		Items:      make([]publicEvent, 0, len(p.Items)),
		NextCursor: p.NextCursor,
		HasNext:    p.HasNext,
		TotalCount: p.TotalCount,
	}
	for _, e := range p.Items {
		out.Items = append(out.Items, toPublicEvent(e))
	}
	return out
}
