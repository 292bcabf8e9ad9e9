package handlers

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/crewmark/crewmark/internal/attendance"
	"github.com/crewmark/crewmark/internal/extractor"
	"github.com/crewmark/crewmark/internal/matcher"
	"github.com/crewmark/crewmark/internal/store"
)

// Recognizer runs one recognition attempt against one event.
type Recognizer interface {
	Process(ctx context.Context, probe []float32, eventID int64, now time.Time, recordedBy string) (attendance.Outcome, error)
}

// RecognizeHandler handles face recognition check-in/check-out requests.
type RecognizeHandler struct {
	extractor     Extractor
	pipeline      Recognizer
	maxUploadSize int64
}

// NewRecognizeHandler creates a new recognize handler.
func NewRecognizeHandler(ext Extractor, pipeline Recognizer, maxUploadSize int64) *RecognizeHandler {
	return &RecognizeHandler{
		extractor:     ext,
		pipeline:      pipeline,
		maxUploadSize: maxUploadSize,
	}
}

type personResponse struct {
	PersonID   string `json:"person_id"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
	Position   string `json:"position,omitempty"`
}

type recordResponse struct {
	RecordID     string  `json:"record_id"`
	EventID      int64   `json:"event_id"`
	Date         string  `json:"date"`
	CheckInTime  *string `json:"check_in_time"`
	CheckOutTime *string `json:"check_out_time"`
	Processed    bool    `json:"processed"`
}

type recognizeResponse struct {
	Success    bool            `json:"success"`
	Action     string          `json:"action,omitempty"`
	Message    string          `json:"message"`
	Person     *personResponse `json:"person,omitempty"`
	Record     *recordResponse `json:"record,omitempty"`
	Confidence float64         `json:"confidence,omitempty"`
	Distance   float64         `json:"distance,omitempty"`
}

func toPersonResponse(p *store.Person) *personResponse {
	if p == nil {
		return nil
	}
	return &personResponse{
		PersonID:   p.PersonID,
		Name:       p.FullName(),
		Department: p.Department,
		Position:   p.Position,
	}
}

func toRecordResponse(rec *store.AttendanceRecord) *recordResponse {
	if rec == nil {
		return nil
	}
	out := &recordResponse{
		RecordID:  rec.ID,
		EventID:   rec.EventID,
		Date:      rec.Date.Format("2006-01-02"),
		Processed: rec.Processed,
	}
	if rec.CheckInTime != nil {
		s := rec.CheckInTime.Format(time.RFC3339)
		out.CheckInTime = &s
	}
	if rec.CheckOutTime != nil {
		s := rec.CheckOutTime.Format(time.RFC3339)
		out.CheckOutTime = &s
	}
	return out
}

// ServeHTTP accepts a multipart photo plus an event_id field, extracts an
// embedding and runs it through the attendance pipeline. Terminal rejections
// map to 4xx responses with a machine-readable reason; only storage failures
// produce a 5xx.
func (h *RecognizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form or file too large")
		return
	}

	eventID, err := strconv.ParseInt(r.FormValue("event_id"), 10, 64)
	if err != nil || eventID <= 0 {
		respondError(w, http.StatusBadRequest, "event_id must be a positive integer")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		respondError(w, http.StatusBadRequest, "photo file is required")
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read photo")
		return
	}
	if !extractor.ValidateImage(imageData, int(h.maxUploadSize)) {
		respondError(w, http.StatusBadRequest, "photo must be a JPEG, PNG, GIF or WebP image within the size limit")
		return
	}

	if scaled, err := extractor.Downscale(imageData, extractor.MaxCaptureDimension); err == nil {
		imageData = scaled
	}

	probe, err := h.extractor.Extract(r.Context(), imageData)
	if err != nil {
		log.Printf("recognize: extraction failed: %v", err)
		respondError(w, http.StatusBadGateway, "face extraction service unavailable")
		return
	}
	if probe == nil {
		respondJSON(w, http.StatusBadRequest, recognizeResponse{
			Success: false,
			Message: "No usable face detected in the photo. Please retry the capture.",
		})
		return
	}

	recordedBy := r.FormValue("recorded_by")
	if recordedBy == "" {
		recordedBy = "facial-api"
	}

	outcome, err := h.pipeline.Process(r.Context(), probe, eventID, time.Now(), recordedBy)
	if err != nil {
		log.Printf("recognize: pipeline failed for event %d: %v", eventID, err)
		respondError(w, http.StatusServiceUnavailable, "attendance storage unavailable, retry the scan")
		return
	}

	h.respondOutcome(w, outcome)
}

func (h *RecognizeHandler) respondOutcome(w http.ResponseWriter, outcome attendance.Outcome) {
	switch outcome.Kind {
	case attendance.OutcomeMatchRejected:
		status := http.StatusBadRequest
		msg := "Face could not be matched. Please retry the capture."
		switch outcome.Reason {
		case matcher.RejectNoCandidates:
			status = http.StatusNotFound
			msg = "Face not recognized. No enrolled person is close enough."
		case matcher.RejectLowConfidence:
			msg = "Match confidence too low. Please retry with better lighting."
		case matcher.RejectAmbiguous:
			msg = "Match is ambiguous between multiple people. Please retry the capture."
		}
		respondJSON(w, status, map[string]any{
			"success": false,
			"reason":  string(outcome.Reason),
			"message": msg,
		})

	case attendance.OutcomePersonInactive:
		respondJSON(w, http.StatusForbidden, recognizeResponse{
			Success:    false,
			Message:    "Recognized person is not active.",
			Person:     toPersonResponse(outcome.Person),
			Confidence: outcome.Confidence,
			Distance:   outcome.Distance,
		})

	case attendance.OutcomeNotAssigned:
		respondJSON(w, http.StatusForbidden, recognizeResponse{
			Success:    false,
			Message:    fmt.Sprintf("%s is not assigned to this event.", outcome.Person.FullName()),
			Person:     toPersonResponse(outcome.Person),
			Confidence: outcome.Confidence,
			Distance:   outcome.Distance,
		})

	case attendance.OutcomeAlreadyCheckedOut:
		respondJSON(w, http.StatusConflict, recognizeResponse{
			Success:    false,
			Message:    fmt.Sprintf("%s already checked out today.", outcome.Person.FullName()),
			Person:     toPersonResponse(outcome.Person),
			Confidence: outcome.Confidence,
			Distance:   outcome.Distance,
		})

	case attendance.OutcomeRecorded:
		verb := "Check-in"
		at := outcome.Record.CheckInTime
		if outcome.Transition == attendance.TransitionCheckOut {
			verb = "Check-out"
			at = outcome.Record.CheckOutTime
		}
		msg := fmt.Sprintf("%s recorded for %s", verb, outcome.Person.FullName())
		if at != nil {
			msg = fmt.Sprintf("%s at %s", msg, at.Format("15:04:05"))
		}
		respondJSON(w, http.StatusOK, recognizeResponse{
			Success:    true,
			Action:     string(outcome.Transition),
			Message:    msg,
			Person:     toPersonResponse(outcome.Person),
			Record:     toRecordResponse(outcome.Record),
			Confidence: outcome.Confidence,
			Distance:   outcome.Distance,
		})

	default:
		log.Printf("recognize: unhandled outcome kind %q", outcome.Kind)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
