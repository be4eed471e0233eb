package document

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// Extractor recovers plain text from a PDF document.
type Extractor interface {
	Extract(ctx context.Context, data []byte, name string) (string, error)
}

// LocalExtractor reads PDF text in-process.
type LocalExtractor struct{}

// Extract implements Extractor.
func (LocalExtractor) Extract(ctx context.Context, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

// HTTPExtractor delegates extraction to a PDF parsing service exposing
// POST /parse (raw bytes in, {"text","pages","error"} out) and GET /health.
type HTTPExtractor struct {
	serviceURL string
	client     *http.Client
}

// NewHTTPExtractor creates an extractor for the service at serviceURL.
func NewHTTPExtractor(serviceURL string, timeout time.Duration) *HTTPExtractor {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPExtractor{
		serviceURL: strings.TrimRight(serviceURL, "/"),
		client:     &http.Client{Timeout: timeout},
	}
}

// parseResponse is the extraction service response format.
type parseResponse struct {
	Text    string `json:"text"`
	Pages   int    `json:"pages"`
	Library string `json:"library,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Extract implements Extractor.
func (p *HTTPExtractor) Extract(ctx context.Context, data []byte, name string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serviceURL+"/parse", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Filename", name)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling PDF service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var result parseResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}

	if result.Error != "" {
		return "", fmt.Errorf("PDF parse error: %s", result.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("PDF service returned status %d", resp.StatusCode)
	}

	return result.Text, nil
}

// Healthy checks if the extraction service is reachable.
func (p *HTTPExtractor) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.serviceURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
