package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crewmark/crewmark/internal/store"
	"github.com/crewmark/crewmark/internal/store/mock"
)

func newEnrollFixture() (*EnrollHandler, *mock.Gallery, *mock.People) {
	gallery := mock.NewGallery()
	people := mock.NewPeople()
	people.AddPerson(*alice())
	h := NewEnrollHandler(&stubExtractor{vector: []float32{1, 0}}, gallery, people, testMaxUpload, 2)
	return h, gallery, people
}

func postEnroll(t *testing.T, h *EnrollHandler, photo []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartCapture(t, photo, fields)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/faces/enroll", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestEnroll(t *testing.T) {
	h, gallery, _ := newEnrollFixture()

	rr := postEnroll(t, h, fakeJPEG(), map[string]string{"person_id": "alice"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rr.Code, rr.Body.String())
	}

	var resp enrollResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Success || resp.PersonID != "alice" || resp.TemplateID == 0 {
		t.Errorf("response = %+v, want successful enrollment", resp)
	}
	if resp.Replaced {
		t.Error("Replaced = true on first enrollment, want false")
	}

	tpl, err := gallery.GetActiveTemplate(t.Context(), "alice")
	if err != nil || tpl == nil {
		t.Fatalf("GetActiveTemplate() = %v, %v; want stored template", tpl, err)
	}
	if tpl.ModelID != "Facenet512" {
		t.Errorf("ModelID = %s, want Facenet512", tpl.ModelID)
	}
}

func TestEnrollReplacesPriorTemplate(t *testing.T) {
	h, gallery, _ := newEnrollFixture()

	postEnroll(t, h, fakeJPEG(), map[string]string{"person_id": "alice"})
	rr := postEnroll(t, h, fakeJPEG(), map[string]string{"person_id": "alice"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rr.Code)
	}

	var resp enrollResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if !resp.Replaced {
		t.Error("Replaced = false on re-enrollment, want true")
	}

	// Only one active template survives.
	templates, _ := gallery.ActiveTemplates(t.Context())
	active := 0
	for _, tpl := range templates {
		if tpl.PersonID == "alice" {
			active++
		}
	}
	if active != 1 {
		t.Errorf("active templates = %d, want 1", active)
	}
}

func TestEnrollUnknownPerson(t *testing.T) {
	h, _, _ := newEnrollFixture()

	rr := postEnroll(t, h, fakeJPEG(), map[string]string{"person_id": "nobody"})
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestEnrollInactivePerson(t *testing.T) {
	h, _, people := newEnrollFixture()
	inactive := *alice()
	inactive.Active = false
	people.AddPerson(inactive)

	rr := postEnroll(t, h, fakeJPEG(), map[string]string{"person_id": "alice"})
	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rr.Code)
	}
}

func TestEnrollNoFace(t *testing.T) {
	gallery := mock.NewGallery()
	people := mock.NewPeople()
	people.AddPerson(*alice())
	h := NewEnrollHandler(&stubExtractor{vector: nil}, gallery, people, testMaxUpload, 0)

	rr := postEnroll(t, h, fakeJPEG(), map[string]string{"person_id": "alice"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestEnrollDimensionMismatch(t *testing.T) {
	gallery := mock.NewGallery()
	people := mock.NewPeople()
	people.AddPerson(*alice())
	h := NewEnrollHandler(&stubExtractor{vector: []float32{1, 0, 0}}, gallery, people, testMaxUpload, 2)

	rr := postEnroll(t, h, fakeJPEG(), map[string]string{"person_id": "alice"})
	if rr.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rr.Code)
	}
}

func TestEnrollMissingPersonID(t *testing.T) {
	h, _, _ := newEnrollFixture()

	rr := postEnroll(t, h, fakeJPEG(), nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestEnrollStorageFailure(t *testing.T) {
	h, gallery, _ := newEnrollFixture()
	gallery.SaveTemplateError = store.NewStorageError("save template", errors.New("disk full"))

	rr := postEnroll(t, h, fakeJPEG(), map[string]string{"person_id": "alice"})
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}
