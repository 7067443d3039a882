// Package semantic implements the remote language-model parser: free text or
// OCR output goes to a chat-completions endpoint with a strict JSON-output
// contract, and the response is defensively extracted and validated onto the
// same record shape the fallback parser produces.
package semantic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"finbot/internal/logging"
	"finbot/internal/parsererror"
)

const defaultTimeout = 30 * time.Second

// Config holds the settings for the chat-completions client.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client talks to a DeepSeek-compatible chat-completions endpoint.
type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string
	url        string
	logger     logging.Logger
}

// NewClient creates a semantic parser client. The API key is required; model
// and base URL fall back to the DeepSeek defaults.
func NewClient(cfg Config, logger logging.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("semantic parser API key is required")
	}
	if logger == nil {
		logger = logging.GetLogger()
	}

	model := cfg.Model
	if model == "" {
		model = "deepseek-chat"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		apiKey: cfg.APIKey,
		model:  model,
		url:    completionsURL(cfg.BaseURL),
		logger: logger,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// completionsURL builds the chat-completions URL, appending /v1 to bare base
// URLs so both "https://api.deepseek.com" and ".../v1" style values work.
func completionsURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = "https://api.deepseek.com"
	}
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	return base + "/chat/completions"
}

// chatResponse is the chat-completion envelope returned by the endpoint.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// complete sends one system+user exchange and returns the raw model text.
// Network failures, timeouts and non-2xx statuses surface as TransportError
// so the caller can divert to the fallback path.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	requestBody := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": 0.0,
		"max_tokens":  2000,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &parsererror.TransportError{Service: "semantic-parser", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &parsererror.TransportError{Service: "semantic-parser", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(
			logging.Field{Key: logging.FieldStatus, Value: resp.StatusCode},
		).Warn("Semantic parser returned non-OK status")
		return "", &parsererror.TransportError{Service: "semantic-parser", Status: resp.StatusCode}
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse completion envelope: %w", parsererror.ErrInvalidResponse)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned: %w", parsererror.ErrInvalidResponse)
	}

	return response.Choices[0].Message.Content, nil
}
