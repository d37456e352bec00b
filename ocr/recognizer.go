// Package ocr recognizes captcha text through an external OCR service.
//
// The service is expected to follow the ddddocr server convention:
// the base64 encoded image is posted as the request body, and the
// recognized text is returned as the plain response body
package ocr

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

var errEmptyResult = errors.New("empty recognition result")

// HTTPRecognizer is the OCR service client
type HTTPRecognizer struct {
	http *resty.Client
	url  string
}

// NewHTTPRecognizer creates a new instance of the OCR service client
func NewHTTPRecognizer(url string, timeout time.Duration) *HTTPRecognizer {
	client := resty.New()
	client.SetTimeout(timeout)

	return &HTTPRecognizer{
		http: client,
		url:  url,
	}
}

// Recognize returns the captcha text found in the given image
func (r *HTTPRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	resp, err := r.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/plain").
		SetBody(base64.StdEncoding.EncodeToString(image)).
		Post(r.url)
	if err != nil {
		return "", fmt.Errorf("unable to execute POST request: %w", err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return "", fmt.Errorf("invalid status code received: %d", resp.StatusCode())
	}

	text := strings.TrimSpace(resp.String())
	if text == "" {
		return "", errEmptyResult
	}

	return text, nil
}
