package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/crewmark/crewmark/internal/store"
)

// EventsHandler lists events open for attendance.
type EventsHandler struct {
	events store.EventReader
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(events store.EventReader) *EventsHandler {
	return &EventsHandler{events: events}
}

type eventListItem struct {
	EventID     int64  `json:"event_id"`
	Description string `json:"description"`
	Date        string `json:"date"`
	StartsAt    string `json:"starts_at,omitempty"`
	EndsAt      string `json:"ends_at,omitempty"`
}

// List returns active events, soonest first.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ActiveEvents(r.Context())
	if err != nil {
		log.Printf("events: query failed: %v", err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	items := make([]eventListItem, 0, len(events))
	for _, e := range events {
		item := eventListItem{
			EventID:     e.EventID,
			Description: e.Description,
			Date:        e.EventDate.Format("2006-01-02"),
		}
		if !e.StartsAt.IsZero() {
			item.StartsAt = e.StartsAt.Format(time.RFC3339)
		}
		if !e.EndsAt.IsZero() {
			item.EndsAt = e.EndsAt.Format(time.RFC3339)
		}
		items = append(items, item)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":  len(items),
		"events": items,
	})
}
