// Package extractor talks to the embedding extraction service. The model
// itself is a black box behind an HTTP API: image bytes in, fixed-length
// vector out. An image with no usable face yields a nil vector, not an
// error.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

const (
	defaultExtractorURL   = "http://localhost:8000"
	defaultExtractorModel = "Facenet512"
)

// Client computes face embeddings using the extractor server.
type Client struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewClient creates a new extractor client.
func NewClient(baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = defaultExtractorURL
	}
	if model == "" {
		model = defaultExtractorModel
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Model returns the embedding model the client requests.
func (c *Client) Model() string {
	return c.model
}

// extractResponse represents the response from the extractor server.
type extractResponse struct {
	Embedding []float32 `json:"embedding"`
	Model     string    `json:"model"`
	Dim       int       `json:"dim"`
	FaceCount int       `json:"face_count"`
}

// Extract computes the face embedding for an image. A (nil, nil) result
// means the service found no usable face; callers should ask for a retried
// capture rather than report a failure.
func (c *Client) Extract(ctx context.Context, imageData []byte) ([]float32, error) {
	body, err := c.postMultipartImage(ctx, "/extract", imageData)
	if err != nil {
		return nil, err
	}

	var resp extractResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse extractor response: %w", err)
	}

	if resp.FaceCount == 0 || len(resp.Embedding) == 0 {
		return nil, nil
	}
	if resp.FaceCount > 1 {
		// Multiple faces make the probe meaningless for identification.
		return nil, nil
	}

	return resp.Embedding, nil
}

// postMultipartImage constructs a multipart form with the image data and
// posts it to the given endpoint. The part carries an explicit Content-Type
// from magic byte detection.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="capture.jpg"`)
	h.Set("Content-Type", DetectMIMEType(imageData))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	if err := writer.WriteField("model", c.model); err != nil {
		return nil, fmt.Errorf("failed to write model field: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extractor error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// DetectMIMEType detects the MIME type from image data.
func DetectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	// GIF: 47 49 46 38
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x38 {
		return "image/gif"
	}
	// WebP: 52 49 46 46 ... 57 45 42 50
	if len(data) >= 12 && data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50 {
		return "image/webp"
	}
	return "application/octet-stream"
}

// minImageBytes rejects uploads too small to be a usable capture.
const minImageBytes = 1000

// ValidateImage checks that data looks like a supported image within the
// size limit.
func ValidateImage(data []byte, maxBytes int) bool {
	if len(data) < minImageBytes {
		return false
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return false
	}
	switch DetectMIMEType(data) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}
