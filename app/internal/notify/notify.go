package notify

import (
	"context"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// sendTimeout bounds a single delivery attempt so a slow recipient cannot
// stall the caller.
const sendTimeout = 20 * time.Second

// Sink delivers one text message to one chat.
type Sink interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Registry is the set of chats subscribed to liveness notifications.
// It only grows; subscriptions last for the life of the process.
type Registry struct {
	mu    sync.RWMutex
	chats map[int64]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{chats: make(map[int64]struct{})}
}

// Add registers a chat. Re-adding an existing chat is a no-op.
func (r *Registry) Add(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats[chatID] = struct{}{}
}

// List returns the subscribed chat IDs in stable order.
func (r *Registry) List() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]int64, 0, len(r.chats))
	for id := range r.chats {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len reports the number of subscribers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chats)
}

// Broadcaster fans a message out to every subscriber. Each delivery is
// independent: one failing recipient never blocks or fails the others, and
// failures are logged, not returned.
type Broadcaster struct {
	sink     Sink
	registry *Registry
	onResult func(ok bool)
}

// NewBroadcaster creates a broadcaster over the given sink and registry.
// onResult, if non-nil, is invoked once per delivery attempt (used for
// metrics); it must be cheap and safe for concurrent use.
func NewBroadcaster(sink Sink, registry *Registry, onResult func(ok bool)) *Broadcaster {
	return &Broadcaster{sink: sink, registry: registry, onResult: onResult}
}

// Broadcast delivers text to every current subscriber and returns the
// number of successful deliveries. Each recipient gets its own goroutine
// so a slow or unreachable chat never delays the others. Callers must not
// hold any state lock: delivery is outbound network I/O.
func (b *Broadcaster) Broadcast(text string) int {
	var wg sync.WaitGroup
	var sent atomic.Int64
	for _, chatID := range b.registry.List() {
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			defer cancel()
			err := b.sink.Send(ctx, chatID, text)
			if err != nil {
				log.Printf("notify: delivery to chat %d failed: %v", chatID, err)
			} else {
				sent.Add(1)
			}
			if b.onResult != nil {
				b.onResult(err == nil)
			}
		}(chatID)
	}
	wg.Wait()
	return int(sent.Load())
}
