// Package ocr is the boundary to the external card-image text extraction
// service. The core only needs an optional {identifier, name} pair; any
// failure here degrades intake, it never aborts it.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cardreturn/pkg/platform/sentinel"
)

// Extraction is the best-effort result of reading a card photo. Either field
// may be empty.
type Extraction struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
}

// HTTPExtractor calls a remote OCR service. The client timeout bounds the
// call; expiry is reported as an error and treated as extraction failure by
// the caller.
type HTTPExtractor struct {
	baseURL string
	client  *http.Client
}

// NewHTTPExtractor builds an extractor for the service at baseURL.
func NewHTTPExtractor(baseURL string, timeout time.Duration) *HTTPExtractor {
	return &HTTPExtractor{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Extract posts the raw image bytes to the OCR service.
func (e *HTTPExtractor) Extract(ctx context.Context, image []byte) (Extraction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/extract", bytes.NewReader(image))
	if err != nil {
		return Extraction{}, fmt.Errorf("build ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := e.client.Do(req)
	if err != nil {
		return Extraction{}, fmt.Errorf("call ocr service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Extraction{}, fmt.Errorf("ocr service status %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}

	var out Extraction
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Extraction{}, fmt.Errorf("decode ocr response: %w", err)
	}
	return out, nil
}

// Disabled is the extractor used when no OCR service is configured. Intake
// proceeds on manual identifiers only.
type Disabled struct{}

func (Disabled) Extract(ctx context.Context, image []byte) (Extraction, error) {
	return Extraction{}, fmt.Errorf("ocr not configured: %w", sentinel.ErrUnavailable)
}
