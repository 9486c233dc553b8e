package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeSink records deliveries and fails for chosen chats.
type fakeSink struct {
	mu      sync.Mutex
	sent    []int64
	failFor map[int64]bool
}

func (f *fakeSink) Send(ctx context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[chatID] {
		return errors.New("chat unreachable")
	}
	f.sent = append(f.sent, chatID)
	return nil
}

func TestRegistry_AddIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Add(42)
	r.Add(42)
	r.Add(7)

	if r.Len() != 2 {
		t.Errorf("expected 2 subscribers, got %d", r.Len())
	}
	got := r.List()
	if len(got) != 2 || got[0] != 7 || got[1] != 42 {
		t.Errorf("unexpected subscriber list: %v", got)
	}
}

func TestBroadcast_EmptyRegistry(t *testing.T) {
	sink := &fakeSink{}
	b := NewBroadcaster(sink, NewRegistry(), nil)

	if sent := b.Broadcast("hello"); sent != 0 {
		t.Errorf("expected 0 deliveries, got %d", sent)
	}
	if len(sink.sent) != 0 {
		t.Error("no sends expected with no subscribers")
	}
}

func TestBroadcast_FailureDoesNotBlockOthers(t *testing.T) {
	sink := &fakeSink{failFor: map[int64]bool{2: true}}
	reg := NewRegistry()
	reg.Add(1)
	reg.Add(2)
	reg.Add(3)

	var mu sync.Mutex
	var results []bool
	b := NewBroadcaster(sink, reg, func(ok bool) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, ok)
	})

	if sent := b.Broadcast("sensor offline"); sent != 2 {
		t.Errorf("expected 2 successful deliveries, got %d", sent)
	}
	if len(sink.sent) != 2 {
		t.Errorf("expected sends to 2 chats, got %v", sink.sent)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 delivery results, got %d", len(results))
	}
}

// slowSink blocks every send for a fixed delay.
type slowSink struct {
	delay time.Duration
	sent  atomic.Int64
}

func (s *slowSink) Send(ctx context.Context, chatID int64, text string) error {
	time.Sleep(s.delay)
	s.sent.Add(1)
	return nil
}

func TestBroadcast_SlowRecipientDoesNotDelayOthers(t *testing.T) {
	const subscribers = 5
	const delay = 100 * time.Millisecond

	sink := &slowSink{delay: delay}
	reg := NewRegistry()
	for i := int64(1); i <= subscribers; i++ {
		reg.Add(i)
	}
	b := NewBroadcaster(sink, reg, nil)

	start := time.Now()
	if sent := b.Broadcast("sensor offline"); sent != subscribers {
		t.Errorf("expected %d deliveries, got %d", subscribers, sent)
	}
	elapsed := time.Since(start)

	// Sequential delivery would take subscribers*delay. Allow generous
	// scheduling slack, but stay well under two send delays.
	if elapsed >= 2*delay {
		t.Errorf("broadcast to %d slow chats took %v, deliveries appear serialized", subscribers, elapsed)
	}
	if got := sink.sent.Load(); got != subscribers {
		t.Errorf("expected %d sends, got %d", subscribers, got)
	}
}

func TestTelegramSink_Send(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewTelegramSinkWithBase("TOKEN", srv.URL)
	if err := s.Send(context.Background(), 99, "hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/botTOKEN/sendMessage" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotBody["chat_id"].(float64) != 99 || gotBody["text"] != "hi" {
		t.Errorf("unexpected payload: %v", gotBody)
	}
}

func TestTelegramSink_HTTPErrorIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewTelegramSinkWithBase("TOKEN", srv.URL)
	if err := s.Send(context.Background(), 1, "hi"); err == nil {
		t.Error("expected error for non-2xx response")
	}
}
