package events

import (
	"encoding/json"
	"time"
)

// EventResponse is the wire shape of one notification event
type EventResponse struct {
	ID        int64           `json:"id"`
	EventType string          `json:"event_type"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   json.RawMessage `json:"payload"`
}

// FeedResponse is the notification events feed with window aggregates
type FeedResponse struct {
	GeneratedAt     time.Time       `json:"generated_at"`
	WindowHours     int             `json:"window_hours"`
	EventTypeFilter string          `json:"event_type_filter,omitempty"`
	TotalEvents     int             `json:"total_events"`
	ByType          map[string]int  `json:"by_type"`
	ByStatus        map[string]int  `json:"by_status"`
	Events          []EventResponse `json:"events"`
}

func asEventResponse(e *Event) EventResponse {
	return EventResponse{
		ID:        e.ID,
		EventType: e.EventType,
		Status:    e.Status,
		CreatedAt: e.CreatedAt,
		Payload:   e.Payload,
	}
}
