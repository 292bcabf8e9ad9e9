package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crewmark/crewmark/internal/store"
	"github.com/crewmark/crewmark/internal/store/mock"
)

func seedRecords(t *testing.T) *mock.Records {
	t.Helper()
	records := mock.NewRecords()
	today := store.DayOf(time.Now())
	yesterday := today.AddDate(0, 0, -1)

	for _, rec := range []store.AttendanceRecord{
		{PersonID: "alice", EventID: 5, Date: yesterday},
		{PersonID: "alice", EventID: 5, Date: today},
		{PersonID: "bob", EventID: 5, Date: today},
	} {
		checkIn := rec.Date.Add(9 * time.Hour)
		rec.CheckInTime = &checkIn
		if _, err := records.Insert(context.Background(), &rec); err != nil {
			t.Fatalf("seeding record: %v", err)
		}
	}
	return records
}

func TestRecordsRecent(t *testing.T) {
	h := NewRecordsHandler(seedRecords(t))

	rr := httptest.NewRecorder()
	h.Recent(rr, httptest.NewRequest(http.MethodGet, "/records/recent", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp struct {
		Count   int              `json:"count"`
		Records []recordListItem `json:"records"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Count != 3 {
		t.Errorf("count = %d, want 3", resp.Count)
	}
	// Newest first.
	if resp.Records[0].PersonID != "bob" {
		t.Errorf("first record = %s, want bob (most recent)", resp.Records[0].PersonID)
	}
}

func TestRecordsRecentLimit(t *testing.T) {
	h := NewRecordsHandler(seedRecords(t))

	rr := httptest.NewRecorder()
	h.Recent(rr, httptest.NewRequest(http.MethodGet, "/records/recent?limit=2", nil))

	var resp struct {
		Count int `json:"count"`
	}
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Count != 2 {
		t.Errorf("count = %d, want 2", resp.Count)
	}
}

func TestRecordsStats(t *testing.T) {
	records := seedRecords(t)
	today := store.DayOf(time.Now())
	checkIn := today.Add(8 * time.Hour)
	checkOut := today.Add(17 * time.Hour)
	if _, err := records.Insert(context.Background(), &store.AttendanceRecord{
		PersonID:     "carol",
		EventID:      6,
		Date:         today,
		CheckInTime:  &checkIn,
		CheckOutTime: &checkOut,
	}); err != nil {
		t.Fatalf("seeding record: %v", err)
	}
	h := NewRecordsHandler(records)

	rr := httptest.NewRecorder()
	h.Stats(rr, httptest.NewRequest(http.MethodGet, "/records/stats", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp struct {
		Date   string           `json:"date"`
		Events []eventStatsItem `json:"events"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Date != today.Format("2006-01-02") {
		t.Errorf("date = %s, want today", resp.Date)
	}
	if len(resp.Events) != 2 {
		t.Fatalf("events = %+v, want stats for events 5 and 6", resp.Events)
	}
	if resp.Events[0].EventID != 5 || resp.Events[0].CheckIns != 2 || resp.Events[0].CheckOuts != 0 {
		t.Errorf("event 5 stats = %+v, want 2 check-ins, 0 check-outs", resp.Events[0])
	}
	if resp.Events[1].EventID != 6 || resp.Events[1].CheckIns != 1 || resp.Events[1].CheckOuts != 1 {
		t.Errorf("event 6 stats = %+v, want 1 check-in, 1 check-out", resp.Events[1])
	}
}

func TestRecordsStatsOnDate(t *testing.T) {
	h := NewRecordsHandler(seedRecords(t))
	yesterday := store.DayOf(time.Now()).AddDate(0, 0, -1)

	rr := httptest.NewRecorder()
	h.Stats(rr, httptest.NewRequest(http.MethodGet, "/records/stats?date="+yesterday.Format("2006-01-02"), nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp struct {
		Events []eventStatsItem `json:"events"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Events) != 1 || resp.Events[0].CheckIns != 1 {
		t.Errorf("events = %+v, want only yesterday's single check-in", resp.Events)
	}
}

func TestRecordsStatsBadDate(t *testing.T) {
	h := NewRecordsHandler(mock.NewRecords())

	rr := httptest.NewRecorder()
	h.Stats(rr, httptest.NewRequest(http.MethodGet, "/records/stats?date=14-03-2026", nil))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestRecordsStatsStorageFailure(t *testing.T) {
	records := mock.NewRecords()
	records.StatsError = store.NewStorageError("query record stats", context.DeadlineExceeded)
	h := NewRecordsHandler(records)

	rr := httptest.NewRecorder()
	h.Stats(rr, httptest.NewRequest(http.MethodGet, "/records/stats", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}

func TestRecordsToday(t *testing.T) {
	h := NewRecordsHandler(seedRecords(t))

	rr := httptest.NewRecorder()
	h.Today(rr, httptest.NewRequest(http.MethodGet, "/records/today", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp struct {
		Date    string           `json:"date"`
		Count   int              `json:"count"`
		Records []recordListItem `json:"records"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("count = %d, want 2 (yesterday's record excluded)", resp.Count)
	}
	if resp.Date != store.DayOf(time.Now()).Format("2006-01-02") {
		t.Errorf("date = %s, want today", resp.Date)
	}
}
