package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/crewmark/crewmark/internal/store"
	"github.com/go-chi/chi/v5"
)

// FacesHandler exposes template metadata and deactivation. The vector itself
// never leaves the service.
type FacesHandler struct {
	templates store.TemplateWriter
}

// NewFacesHandler creates a new faces handler.
func NewFacesHandler(templates store.TemplateWriter) *FacesHandler {
	return &FacesHandler{templates: templates}
}

type templateInfoResponse struct {
	PersonID   string  `json:"person_id"`
	TemplateID int64   `json:"template_id"`
	Model      string  `json:"model"`
	Dim        int     `json:"dim"`
	Confidence float64 `json:"confidence"`
	EnrolledAt string  `json:"enrolled_at"`
}

// Get returns metadata about a person's active template.
func (h *FacesHandler) Get(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "personID")

	t, err := h.templates.GetActiveTemplate(r.Context(), personID)
	if err != nil {
		log.Printf("faces: template lookup failed for %s: %v", sanitizeForLog(personID), err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	if t == nil {
		respondError(w, http.StatusNotFound, "no active template for this person")
		return
	}

	respondJSON(w, http.StatusOK, templateInfoResponse{
		PersonID:   t.PersonID,
		TemplateID: t.ID,
		Model:      t.ModelID,
		Dim:        len(t.Vector),
		Confidence: t.EnrollmentConfidence,
		EnrolledAt: t.CreatedAt.Format(time.RFC3339),
	})
}

// Delete deactivates a person's active template.
func (h *FacesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "personID")

	deactivated, err := h.templates.DeactivateTemplate(r.Context(), personID)
	if err != nil {
		log.Printf("faces: deactivation failed for %s: %v", sanitizeForLog(personID), err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	if !deactivated {
		respondError(w, http.StatusNotFound, "no active template for this person")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"person_id": personID,
		"message":   "Face template deactivated",
	})
}
