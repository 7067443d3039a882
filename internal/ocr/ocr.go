// Package ocr extracts text from receipt photos through the OCR.space API.
package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finbot/internal/logging"
	"finbot/internal/parsererror"
)

const (
	defaultEndpoint = "https://api.ocr.space/parse/image"
	defaultTimeout  = 30 * time.Second

	// Below this length the scan is noise, not a receipt.
	minTextLength = 10
)

// Config holds OCR.space client settings.
type Config struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// Client recognizes text in images via OCR.space.
type Client struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
	logger     logging.Logger
}

// NewClient creates an OCR client. The API key is required.
func NewClient(cfg Config, logger logging.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OCR API key is required")
	}
	if logger == nil {
		logger = logging.GetLogger()
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		logger:   logger,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// ocrResponse is the OCR.space result envelope.
type ocrResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool `json:"IsErroredOnProcessing"`
	ErrorMessage          any  `json:"ErrorMessage"`
}

// RecognizeReceipt sends a JPEG image for recognition and returns the raw
// text. Engine 2 handles Cyrillic receipts noticeably better than engine 1.
func (c *Client) RecognizeReceipt(ctx context.Context, imageData []byte) (string, error) {
	form := url.Values{}
	form.Set("base64Image", "data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString(imageData))
	form.Set("language", "rus")
	form.Set("OCREngine", "2")
	form.Set("scale", "true")
	form.Set("detectOrientation", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &parsererror.TransportError{Service: "ocr", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &parsererror.TransportError{Service: "ocr", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(
			logging.Field{Key: logging.FieldStatus, Value: resp.StatusCode},
		).Warn("OCR service returned non-OK status")
		return "", &parsererror.TransportError{Service: "ocr", Status: resp.StatusCode}
	}

	var response ocrResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse OCR envelope: %w", parsererror.ErrInvalidResponse)
	}
	if response.IsErroredOnProcessing {
		c.logger.WithFields(
			logging.Field{Key: logging.FieldReason, Value: fmt.Sprintf("%v", response.ErrorMessage)},
		).Warn("OCR processing failed")
		return "", fmt.Errorf("OCR processing failed: %w", parsererror.ErrUnreadable)
	}
	if len(response.ParsedResults) == 0 {
		return "", fmt.Errorf("no OCR results: %w", parsererror.ErrUnreadable)
	}

	text := strings.TrimSpace(response.ParsedResults[0].ParsedText)
	if len([]rune(text)) < minTextLength {
		return "", fmt.Errorf("recognized text too short: %w", parsererror.ErrUnreadable)
	}

	c.logger.WithFields(
		logging.Field{Key: logging.FieldCount, Value: len(text)},
	).Debug("OCR recognized receipt text")
	return text, nil
}
