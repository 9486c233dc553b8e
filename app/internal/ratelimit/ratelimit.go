package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a per-key token bucket. The ingest endpoint uses it keyed by
// remote IP so a misbehaving device or proxy retry storm cannot flood the
// history.
type Limiter struct {
	mu           sync.Mutex
	buckets      map[string]*bucket
	tokensPerMin float64
	maxTokens    float64
	stopCleanup  chan struct{}
	stopOnce     sync.Once
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// New creates a limiter that refills tokensPerMinute tokens per minute up to
// the same cap.
func New(tokensPerMinute int) *Limiter {
	l := &Limiter{
		buckets:      make(map[string]*bucket),
		tokensPerMin: float64(tokensPerMinute),
		maxTokens:    float64(tokensPerMinute),
		stopCleanup:  make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// cleanup drops buckets that have been idle long enough to be full again.
func (l *Limiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			now := time.Now()
			for key, b := range l.buckets {
				if now.Sub(b.lastCheck) > 10*time.Minute {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		case <-l.stopCleanup:
			return
		}
	}
}

// Stop terminates the cleanup goroutine.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}

// Allow reports whether one request from key is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, exists := l.buckets[key]
	if !exists {
		b = &bucket{tokens: l.maxTokens, lastCheck: now}
		l.buckets[key] = b
	}

	b.tokens += now.Sub(b.lastCheck).Minutes() * l.tokensPerMin
	if b.tokens > l.maxTokens {
		b.tokens = l.maxTokens
	}
	b.lastCheck = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}
