// Package station owns the relay's mutable state: the reading history and
// the sensor liveness status. Everything that touches that state — the HTTP
// ingest handler, the background sweep, the chat command reader — goes
// through one Station value; there are no package-level globals.
package station

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"telemon/app/internal/history"
	"telemon/app/internal/liveness"
	"telemon/app/internal/models"
	"telemon/app/internal/notify"
)

// Messages announced on liveness transitions.
const (
	msgOnline  = "🟢 Sensor is back online"
	msgOffline = "🔴 Sensor went silent (offline)"
)

// Station is the core state machine of the relay.
type Station struct {
	mu      sync.Mutex
	store   *history.Store
	tracker *liveness.Tracker
	loc     *time.Location

	broadcaster *notify.Broadcaster
	onIngest    func(accepted bool)
	onStatus    func(online bool)
}

// Option configures optional hooks on a Station.
type Option func(*Station)

// WithIngestHook registers a callback invoked once per ingest attempt.
func WithIngestHook(fn func(accepted bool)) Option {
	return func(s *Station) { s.onIngest = fn }
}

// WithStatusHook registers a callback invoked on every liveness transition.
func WithStatusHook(fn func(online bool)) Option {
	return func(s *Station) { s.onStatus = fn }
}

// New creates a Station. broadcaster may be nil when no chat front-end is
// attached (notifications are then dropped, state still transitions).
func New(store *history.Store, tracker *liveness.Tracker, loc *time.Location, broadcaster *notify.Broadcaster, opts ...Option) *Station {
	if loc == nil {
		loc = time.UTC
	}
	s := &Station{
		store:       store,
		tracker:     tracker,
		loc:         loc,
		broadcaster: broadcaster,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest validates and records one measurement triple. It returns the stored
// reading. All three values must be finite; otherwise nothing is mutated and
// ok is false.
//
// The append and the liveness update happen under one lock so no reader can
// observe one without the other. The online notification, being network I/O,
// is delivered after the lock is released.
func (s *Station) Ingest(t, h, p float64, now time.Time) (r models.Reading, ok bool) {
	if !finite(t) || !finite(h) || !finite(p) {
		if s.onIngest != nil {
			s.onIngest(false)
		}
		return models.Reading{}, false
	}

	r = models.Reading{
		Time: now.In(s.loc),
		Temp: round1(t),
		Hum:  round1(h),
		Pres: round1(p),
	}

	s.mu.Lock()
	s.store.Append(r)
	sig := s.tracker.RecordSeen(r.Time)
	s.mu.Unlock()

	if s.onIngest != nil {
		s.onIngest(true)
	}
	s.deliver(sig)
	return r, true
}

// Reevaluate runs one liveness sweep against the given time and delivers the
// offline notification if the sensor just crossed the silence threshold.
func (s *Station) Reevaluate(now time.Time) liveness.Signal {
	s.mu.Lock()
	sig := s.tracker.Reevaluate(now)
	s.mu.Unlock()

	s.deliver(sig)
	return sig
}

// Run drives the periodic liveness sweep until ctx is cancelled. A failure
// inside one tick is logged and never terminates the loop.
func (s *Station) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("station: liveness sweep every %v", interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("station: liveness sweep stopped")
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

func (s *Station) sweep(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("station: sweep panic recovered: %v", r)
		}
	}()
	s.Reevaluate(now)
}

// deliver announces a transition. Callers must not hold s.mu.
func (s *Station) deliver(sig liveness.Signal) {
	if sig == liveness.SignalNone {
		return
	}
	if s.onStatus != nil {
		s.onStatus(sig == liveness.SignalOnline)
	}
	if s.broadcaster == nil {
		return
	}
	text := msgOnline
	if sig == liveness.SignalOffline {
		text = msgOffline
	}
	s.broadcaster.Broadcast(text)
}

// Current returns the latest reading, if any.
func (s *Station) Current() (models.Reading, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Latest()
}

// History returns an isolated snapshot of the retained readings.
func (s *Station) History() []models.Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

// Online reports the current liveness status without reconciling it.
func (s *Station) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Online()
}

// StatusDescription renders the human-readable status line shown in chat.
func (s *Station) StatusDescription(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Describe(now.In(s.loc))
}

// Location returns the station's display timezone.
func (s *Station) Location() *time.Location {
	return s.loc
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
