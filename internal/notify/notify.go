// Package notify sends messages to users through the Telegram Bot API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"finbot/internal/logging"
	"finbot/internal/parsererror"
)

const defaultTimeout = 10 * time.Second

// Notifier delivers bot messages to Telegram chats.
type Notifier struct {
	httpClient *http.Client
	baseURL    string
	logger     logging.Logger
}

// New creates a notifier for the given bot token. An empty baseURL uses the
// public Telegram API.
func New(token, baseURL string, logger logging.Logger) (*Notifier, error) {
	if token == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if logger == nil {
		logger = logging.GetLogger()
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	return &Notifier{
		baseURL: fmt.Sprintf("%s/bot%s", baseURL, token),
		logger:  logger,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}, nil
}

// SendMessage posts one text message to a chat.
func (n *Notifier) SendMessage(ctx context.Context, chatID int64, text string) error {
	payload, err := json.Marshal(map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/sendMessage", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return &parsererror.TransportError{Service: "telegram", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		n.logger.WithFields(
			logging.Field{Key: logging.FieldStatus, Value: resp.StatusCode},
			logging.Field{Key: "chat_id", Value: chatID},
		).Warn("Telegram rejected message")
		return &parsererror.TransportError{Service: "telegram", Status: resp.StatusCode}
	}
	return nil
}
