package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/crewmark/crewmark/internal/store"
)

// RecordsHandler lists attendance records for operator dashboards.
type RecordsHandler struct {
	records store.RecordStore
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(records store.RecordStore) *RecordsHandler {
	return &RecordsHandler{records: records}
}

type recordListItem struct {
	RecordID     string  `json:"record_id"`
	PersonID     string  `json:"person_id"`
	PersonName   string  `json:"person_name,omitempty"`
	EventID      int64   `json:"event_id"`
	Event        string  `json:"event,omitempty"`
	Date         string  `json:"date"`
	CheckInTime  *string `json:"check_in_time"`
	CheckOutTime *string `json:"check_out_time"`
	Processed    bool    `json:"processed"`
	RecordedBy   string  `json:"recorded_by,omitempty"`
}

func toRecordListItems(records []store.AttendanceRecord) []recordListItem {
	items := make([]recordListItem, 0, len(records))
	for _, rec := range records {
		item := recordListItem{
			RecordID:   rec.ID,
			PersonID:   rec.PersonID,
			PersonName: rec.PersonName,
			EventID:    rec.EventID,
			Event:      rec.EventDescription,
			Date:       rec.Date.Format("2006-01-02"),
			Processed:  rec.Processed,
			RecordedBy: rec.RecordedBy,
		}
		if rec.CheckInTime != nil {
			s := rec.CheckInTime.Format(time.RFC3339)
			item.CheckInTime = &s
		}
		if rec.CheckOutTime != nil {
			s := rec.CheckOutTime.Format(time.RFC3339)
			item.CheckOutTime = &s
		}
		items = append(items, item)
	}
	return items
}

// Recent returns the latest attendance records, newest first. The limit query
// parameter defaults to 20, capped at 200.
func (h *RecordsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20, 1, 200)

	records, err := h.records.Recent(r.Context(), limit)
	if err != nil {
		log.Printf("records: recent query failed: %v", err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":   len(records),
		"records": toRecordListItems(records),
	})
}

type eventStatsItem struct {
	EventID   int64  `json:"event_id"`
	Event     string `json:"event,omitempty"`
	CheckIns  int    `json:"check_ins"`
	CheckOuts int    `json:"check_outs"`
}

// Stats returns per-event check-in and check-out counts for a calendar date.
// The date query parameter (YYYY-MM-DD) defaults to today.
func (h *RecordsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	day := store.DayOf(time.Now())
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	stats, err := h.records.StatsOnDate(r.Context(), day)
	if err != nil {
		log.Printf("records: stats query failed: %v", err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	items := make([]eventStatsItem, 0, len(stats))
	for _, s := range stats {
		items = append(items, eventStatsItem{
			EventID:   s.EventID,
			Event:     s.Event,
			CheckIns:  s.CheckIns,
			CheckOuts: s.CheckOuts,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"date":   day.Format("2006-01-02"),
		"events": items,
	})
}

// Today returns all records for the current calendar date.
func (h *RecordsHandler) Today(w http.ResponseWriter, r *http.Request) {
	day := store.DayOf(time.Now())

	records, err := h.records.OnDate(r.Context(), day)
	if err != nil {
		log.Printf("records: today query failed: %v", err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"date":    day.Format("2006-01-02"),
		"count":   len(records),
		"records": toRecordListItems(records),
	})
}
