// Package bot is the Telegram front-end of the relay. It reads commands via
// long polling and answers them from the station's read-only query surface;
// the only state it mutates is the subscriber registry.
package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"telemon/app/internal/notify"
	"telemon/app/internal/station"
	"telemon/app/internal/weather"
)

// pollTimeout is the long-poll timeout passed to getUpdates.
const pollTimeout = 30 * time.Second

// Bot runs the chat front-end.
type Bot struct {
	token   string
	baseURL string
	client  *http.Client

	station  *station.Station
	registry *notify.Registry
	weather  *weather.Client

	offset int64
}

// New creates a bot. weatherClient may be nil when no API key is configured;
// the weather menu then reports that the feature is unavailable.
func New(token string, st *station.Station, registry *notify.Registry, weatherClient *weather.Client) *Bot {
	return &Bot{
		token:    token,
		baseURL:  "https://api.telegram.org",
		client:   &http.Client{Timeout: pollTimeout + 10*time.Second},
		station:  st,
		registry: registry,
		weather:  weatherClient,
	}
}

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

type updatesResponse struct {
	OK     bool     `json:"ok"`
	Result []update `json:"result"`
}

// Run polls for updates until ctx is cancelled. Transport errors back off
// and retry; a panic inside one handler is recovered so a single bad update
// cannot kill the loop.
func (b *Bot) Run(ctx context.Context) {
	log.Println("bot: command loop started")
	for {
		select {
		case <-ctx.Done():
			log.Println("bot: command loop stopped")
			return
		default:
		}

		updates, err := b.getUpdates(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("bot: command loop stopped")
				return
			}
			log.Printf("bot: getUpdates failed: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, u := range updates {
			b.offset = u.UpdateID + 1
			if u.Message == nil {
				continue
			}
			b.handle(ctx, u.Message.Chat.ID, u.Message.Text)
		}
	}
}

func (b *Bot) getUpdates(ctx context.Context) ([]update, error) {
	q := url.Values{}
	q.Set("timeout", strconv.Itoa(int(pollTimeout.Seconds())))
	if b.offset > 0 {
		q.Set("offset", strconv.FormatInt(b.offset, 10))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/bot%s/getUpdates?%s", b.baseURL, b.token, q.Encode()), nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("telegram getUpdates: http %d", resp.StatusCode)
	}

	var parsed updatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if !parsed.OK {
		return nil, fmt.Errorf("telegram getUpdates: ok=false")
	}
	return parsed.Result, nil
}

// replyKeyboard is the Bot API reply_markup shape.
type replyKeyboard struct {
	Keyboard       [][]string `json:"keyboard"`
	ResizeKeyboard bool       `json:"resize_keyboard"`
}

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string, keyboard *replyKeyboard) error {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	if keyboard != nil {
		payload["reply_markup"] = keyboard
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/bot%s/sendMessage", b.baseURL, b.token), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram sendMessage: http %d", resp.StatusCode)
	}
	return nil
}

// sendDocument uploads a file via multipart sendDocument.
func (b *Bot) sendDocument(ctx context.Context, chatID int64, filename string, data []byte) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("document", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/bot%s/sendDocument", b.baseURL, b.token), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram sendDocument: http %d", resp.StatusCode)
	}
	return nil
}
