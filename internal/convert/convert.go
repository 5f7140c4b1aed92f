// Package convert turns inbound document files (fax PDFs, TIFF scans)
// into plain text by calling the conversion sidecar. Extraction only
// ever sees the text; page images and other artifacts the sidecar
// produces are ignored here.
package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrConversion indicates the sidecar rejected or failed to convert a
// document.
var ErrConversion = errors.New("document conversion failed")

// Config configures the sidecar client.
type Config struct {
	// BaseURL of the conversion sidecar.
	BaseURL string `koanf:"base_url"`

	// TimeoutSeconds bounds one conversion call. Large multi-page
	// faxes convert slowly, so the default is generous. Default: 120.
	TimeoutSeconds int `koanf:"timeout_seconds"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8070"
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 120
	}
}

// Client calls the conversion sidecar.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a sidecar client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		logger:  logger,
	}
}

type convertRequest struct {
	Source string `json:"source"`
}

type convertResponse struct {
	Text   string `json:"text"`
	Images []any  `json:"images,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Convert resolves a document source (URL or sidecar-reachable path)
// to plain text.
func (c *Client) Convert(ctx context.Context, source string) (string, error) {
	if source == "" {
		return "", fmt.Errorf("%w: empty source", ErrConversion)
	}

	body, err := json.Marshal(convertRequest{Source: source})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/convert", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConversion, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: sidecar returned status %d", ErrConversion, resp.StatusCode)
	}

	var out convertResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrConversion, err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrConversion, out.Error)
	}
	if out.Text == "" {
		return "", fmt.Errorf("%w: sidecar returned no text", ErrConversion)
	}

	c.logger.Debug("converted document",
		zap.Int("text_bytes", len(out.Text)),
		zap.Int("artifacts_discarded", len(out.Images)),
	)
	return out.Text, nil
}
