package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// TelegramSink sends messages through the Telegram Bot API.
type TelegramSink struct {
	token   string
	baseURL string
	client  *http.Client
}

// NewTelegramSink creates a sink for the given bot token.
func NewTelegramSink(token string) *TelegramSink {
	return &TelegramSink{
		token:   token,
		baseURL: "https://api.telegram.org",
		client:  &http.Client{Timeout: sendTimeout},
	}
}

// NewTelegramSinkWithBase is like NewTelegramSink but targets a custom API
// base URL. Used by tests.
func NewTelegramSinkWithBase(token, baseURL string) *TelegramSink {
	s := NewTelegramSink(token)
	s.baseURL = baseURL
	return s
}

// Send posts one sendMessage call.
func (s *TelegramSink) Send(ctx context.Context, chatID int64, text string) error {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	body, _ := json.Marshal(payload)

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram sendMessage: http %d", resp.StatusCode)
	}
	return nil
}

var _ Sink = (*TelegramSink)(nil)
