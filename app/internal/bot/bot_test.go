package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"telemon/app/internal/cache"
	"telemon/app/internal/history"
	"telemon/app/internal/liveness"
	"telemon/app/internal/notify"
	"telemon/app/internal/station"
	"telemon/app/internal/weather"
)

// fakeTelegram captures Bot API calls.
type fakeTelegram struct {
	mu        sync.Mutex
	messages  []map[string]interface{}
	documents []string // filenames
	updates   string   // canned getUpdates body
}

func (f *fakeTelegram) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			body := f.updates
			if body == "" {
				body = `{"ok":true,"result":[]}`
			}
			f.updates = `{"ok":true,"result":[]}`
			_, _ = w.Write([]byte(body))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var payload map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&payload)
			f.messages = append(f.messages, payload)
			_, _ = w.Write([]byte(`{"ok":true}`))
		case strings.HasSuffix(r.URL.Path, "/sendDocument"):
			_ = r.ParseMultipartForm(1 << 20)
			if fh := r.MultipartForm.File["document"]; len(fh) > 0 {
				f.documents = append(f.documents, fh[0].Filename)
			}
			_, _ = w.Write([]byte(`{"ok":true}`))
		default:
			http.NotFound(w, r)
		}
	}
}

func (f *fakeTelegram) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.messages {
		if s, ok := m["text"].(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func newTestBot(t *testing.T, weatherClient *weather.Client) (*Bot, *fakeTelegram, *station.Station, *notify.Registry) {
	t.Helper()
	fake := &fakeTelegram{}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	st := station.New(history.NewStore(nil), liveness.NewTracker(liveness.OfflineAfter), time.UTC, nil)
	reg := notify.NewRegistry()

	b := New("TOKEN", st, reg, weatherClient)
	b.baseURL = srv.URL
	return b, fake, st, reg
}

func TestStartRegistersSubscriberAndShowsMenu(t *testing.T) {
	b, fake, _, reg := newTestBot(t, nil)

	b.handle(context.Background(), 42, "/start")

	if reg.Len() != 1 {
		t.Errorf("expected 1 subscriber, got %d", reg.Len())
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fake.messages))
	}
	if fake.messages[0]["reply_markup"] == nil {
		t.Error("expected a reply keyboard on /start")
	}
}

func TestTemperature_NoData(t *testing.T) {
	b, fake, _, _ := newTestBot(t, nil)

	b.handle(context.Background(), 42, btnTemperature)

	texts := fake.sentTexts()
	if len(texts) != 1 || texts[0] != "No data yet" {
		t.Errorf("unexpected reply: %v", texts)
	}
}

func TestTemperature_WithReading(t *testing.T) {
	b, fake, st, _ := newTestBot(t, nil)
	st.Ingest(21.5, 60.2, 1005.3, time.Now())

	b.handle(context.Background(), 42, btnTemperature)

	texts := fake.sentTexts()
	if len(texts) != 1 {
		t.Fatalf("expected 1 reply, got %v", texts)
	}
	for _, want := range []string{"21.5 °C", "60.2 %", "1005.3 hPa", "online"} {
		if !strings.Contains(texts[0], want) {
			t.Errorf("reply missing %q:\n%s", want, texts[0])
		}
	}
}

func TestHistoryChart(t *testing.T) {
	b, fake, st, _ := newTestBot(t, nil)

	b.handle(context.Background(), 42, btnHistory)
	if texts := fake.sentTexts(); len(texts) != 1 || texts[0] != "History is empty" {
		t.Errorf("expected empty-history reply, got %v", texts)
	}

	st.Ingest(21.5, 60, 1000, time.Now())
	b.handle(context.Background(), 42, btnHistory)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.documents) != 1 || fake.documents[0] != "temp_day.svg" {
		t.Errorf("expected one chart upload, got %v", fake.documents)
	}
}

func TestWeatherUpstreamFailure(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "oops", http.StatusBadGateway)
	}))
	defer down.Close()

	wc := weather.NewClient("KEY", "Testville", nil)
	wc.BaseURL = down.URL

	b, fake, _, _ := newTestBot(t, wc)
	b.handle(context.Background(), 42, btnWeatherNow)

	texts := fake.sentTexts()
	if len(texts) != 1 || texts[0] != msgUpstreamDown {
		t.Errorf("expected apologetic reply, got %v", texts)
	}
}

func TestWeatherNotConfigured(t *testing.T) {
	b, fake, _, _ := newTestBot(t, nil)

	b.handle(context.Background(), 42, btnWeather3d)
	if texts := fake.sentTexts(); len(texts) != 1 || !strings.Contains(texts[0], "not configured") {
		t.Errorf("unexpected reply: %v", texts)
	}
}

func TestWeatherNow_Success(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"main":{"temp":5.5,"feels_like":3.2,"humidity":80},"wind":{"speed":2},"weather":[{"description":"mist"}]}`))
	}))
	defer up.Close()

	responses := cache.New(time.Minute)
	defer responses.Stop()
	wc := weather.NewClient("KEY", "Testville", responses)
	wc.BaseURL = up.URL

	b, fake, _, _ := newTestBot(t, wc)
	b.handle(context.Background(), 42, btnWeatherNow)

	texts := fake.sentTexts()
	if len(texts) != 1 || !strings.Contains(texts[0], "5.5°C") || !strings.Contains(texts[0], "mist") {
		t.Errorf("unexpected weather reply: %v", texts)
	}
}

func TestRunProcessesUpdatesAndStops(t *testing.T) {
	b, fake, _, reg := newTestBot(t, nil)
	fake.mu.Lock()
	fake.updates = `{"ok":true,"result":[{"update_id":7,"message":{"text":"/start","chat":{"id":99}}}]}`
	fake.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for reg.Len() == 0 {
		select {
		case <-deadline:
			t.Fatal("update was not processed in time")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}

	if b.offset != 8 {
		t.Errorf("expected offset to advance to 8, got %d", b.offset)
	}
}
