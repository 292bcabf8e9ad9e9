package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crewmark/crewmark/internal/attendance"
	"github.com/go-chi/chi/v5"
)

// stubExtractor returns a canned vector without talking to any service.
type stubExtractor struct {
	vector []float32
	err    error
}

func (s *stubExtractor) Extract(ctx context.Context, imageData []byte) ([]float32, error) {
	return s.vector, s.err
}

func (s *stubExtractor) Model() string { return "Facenet512" }

// stubRecognizer returns a canned outcome.
type stubRecognizer struct {
	outcome attendance.Outcome
	err     error

	gotEventID    int64
	gotRecordedBy string
}

func (s *stubRecognizer) Process(ctx context.Context, probe []float32, eventID int64, now time.Time, recordedBy string) (attendance.Outcome, error) {
	s.gotEventID = eventID
	s.gotRecordedBy = recordedBy
	return s.outcome, s.err
}

// fakeJPEG is large enough and carries JPEG magic bytes, so it passes upload
// validation without being decodable.
func fakeJPEG() []byte {
	return append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 2000)...)
}

// multipartCapture builds a multipart body with a photo part plus form fields.
func multipartCapture(t *testing.T, photo []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if photo != nil {
		part, err := writer.CreateFormFile("photo", "capture.jpg")
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		if _, err := part.Write(photo); err != nil {
			t.Fatalf("writing photo part: %v", err)
		}
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(%s) error = %v", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

// serveWithParam routes the request through chi so URL parameters resolve.
func serveWithParam(method, pattern, path string, handler http.HandlerFunc) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, handler)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return rr
}
