// Package extract turns raw document text into the structured field
// bundles the intake pipeline merges. Each extractor issues one
// independent call against an OpenAI-compatible chat backend; any
// backend error or malformed bundle surfaces as ErrExtraction.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Sentinel errors for extraction operations.
var (
	// ErrExtraction indicates one extractor failed: backend error,
	// malformed bundle, or a required sub-field absent.
	ErrExtraction = errors.New("extraction failed")

	// ErrMalformedDate indicates a date string unparseable by any known
	// format and not already canonical.
	ErrMalformedDate = errors.New("malformed date")

	// ErrInvalidConfig indicates invalid client configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Default configuration values.
const (
	defaultBaseURL    = "https://api.openai.com"
	defaultModel      = "gpt-4.1"
	defaultTimeout    = 60 * time.Second
	defaultMaxRetries = 3
	defaultBackoff    = 1 * time.Second
)

// Rate limiter defaults: 50 requests per minute.
const (
	defaultRateLimit = 50.0 / 60.0
	defaultBurst     = 5
)

// Config holds configuration for the extraction backend client.
type Config struct {
	// BaseURL is the OpenAI-compatible API root. Anything serving
	// /v1/chat/completions works, including a local Ollama.
	BaseURL string `koanf:"base_url"`

	// APIKey authenticates against the backend. Optional for local
	// backends.
	APIKey string `koanf:"api_key"`

	// Model is the chat model name.
	Model string `koanf:"model"`

	// TimeoutSeconds bounds a single HTTP call. The engine itself
	// imposes no deadlines; this belongs to the backend client.
	TimeoutSeconds int `koanf:"timeout_seconds"`

	// MaxRetries is the retry budget for transient backend failures.
	MaxRetries int `koanf:"max_retries"`
}

// Client is an OpenAI-compatible chat completion client with rate
// limiting and retry on transient failures.
type Client struct {
	model      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

// NewClient creates a new extraction backend client.
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &Client{
		model:   model,
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		maxRetries: maxRetries,
	}, nil
}

// chatRequest is the request body for /v1/chat/completions.
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatResponse is the response body from /v1/chat/completions.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type chatError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends one system+user exchange and returns the assistant
// text. jsonMode constrains the backend to emit a single JSON object.
func (c *Client) Complete(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	if jsonMode {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := defaultBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, retryable, err := c.doRequest(ctx, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return "", lastErr
}

// doRequest performs one HTTP round trip. The second return value
// reports whether the failure is worth retrying.
func (c *Client) doRequest(ctx context.Context, body []byte) (string, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", true, fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr chatError
		msg := string(respBody)
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retryable, fmt.Errorf("backend status %d: %s", resp.StatusCode, msg)
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return "", false, fmt.Errorf("decoding response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return "", false, fmt.Errorf("backend returned no choices")
	}
	return chat.Choices[0].Message.Content, false, nil
}
