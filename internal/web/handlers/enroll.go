package handlers

import (
	"io"
	"log"
	"net/http"
	"time"

	"github.com/crewmark/crewmark/internal/extractor"
	"github.com/crewmark/crewmark/internal/store"
)

// EnrollHandler enrolls or replaces a person's face template.
type EnrollHandler struct {
	extractor     Extractor
	templates     store.TemplateWriter
	people        store.PersonReader
	maxUploadSize int64
	expectedDim   int
}

// NewEnrollHandler creates a new enrollment handler. expectedDim guards
// against enrolling vectors from a different model than the gallery uses;
// zero disables the check.
func NewEnrollHandler(ext Extractor, templates store.TemplateWriter, people store.PersonReader, maxUploadSize int64, expectedDim int) *EnrollHandler {
	return &EnrollHandler{
		extractor:     ext,
		templates:     templates,
		people:        people,
		maxUploadSize: maxUploadSize,
		expectedDim:   expectedDim,
	}
}

type enrollResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	PersonID   string `json:"person_id,omitempty"`
	TemplateID int64  `json:"template_id,omitempty"`
	Model      string `json:"model,omitempty"`
	Dim        int    `json:"dim,omitempty"`
	Replaced   bool   `json:"replaced"`
}

// ServeHTTP accepts a multipart photo plus a person_id field and stores the
// extracted embedding as the person's single active template.
func (h *EnrollHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form or file too large")
		return
	}

	personID := r.FormValue("person_id")
	if personID == "" {
		respondError(w, http.StatusBadRequest, "person_id is required")
		return
	}

	person, err := h.people.GetPerson(r.Context(), personID)
	if err != nil {
		log.Printf("enroll: person lookup failed for %s: %v", sanitizeForLog(personID), err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	if person == nil {
		respondError(w, http.StatusNotFound, "person not found")
		return
	}
	if !person.Active {
		respondError(w, http.StatusForbidden, "person is not active")
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

	vector, err := h.extractor.Extract(r.Context(), imageData)
	if err != nil {
		log.Printf("enroll: extraction failed for %s: %v", sanitizeForLog(personID), err)
		respondError(w, http.StatusBadGateway, "face extraction service unavailable")
		return
	}
	if vector == nil {
		respondError(w, http.StatusBadRequest, "photo must contain exactly one clear face")
		return
	}
	if h.expectedDim > 0 && len(vector) != h.expectedDim {
		log.Printf("enroll: unexpected embedding dimension %d (want %d) for model %s", len(vector), h.expectedDim, h.extractor.Model())
		respondError(w, http.StatusBadGateway, "extraction service returned an unexpected embedding")
		return
	}

	prior, err := h.templates.GetActiveTemplate(r.Context(), personID)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	templateID, err := h.templates.SaveTemplate(r.Context(), store.FaceTemplate{
		PersonID:             personID,
		Vector:               vector,
		ModelID:              h.extractor.Model(),
		EnrollmentConfidence: 1.0,
		Active:               true,
		CreatedAt:            time.Now(),
	})
	if err != nil {
		log.Printf("enroll: save failed for %s: %v", sanitizeForLog(personID), err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	respondJSON(w, http.StatusCreated, enrollResponse{
		Success:    true,
		Message:    "Face template enrolled for " + person.FullName(),
		PersonID:   personID,
		TemplateID: templateID,
		Model:      h.extractor.Model(),
		Dim:        len(vector),
		Replaced:   prior != nil,
	})
}
