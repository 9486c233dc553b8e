package liveness

import (
	"fmt"
	"sync"
	"time"
)

// OfflineAfter is how long the sensor may stay silent before it is
// considered offline. It covers several missed push cycles so normal
// delivery jitter does not flap the status.
const OfflineAfter = 310 * time.Second

// Signal reports a status transition that the caller should announce.
// Delivery is the caller's job; the tracker itself performs no I/O.
type Signal int

const (
	SignalNone Signal = iota
	SignalOnline
	SignalOffline
)

func (s Signal) String() string {
	switch s {
	case SignalOnline:
		return "online"
	case SignalOffline:
		return "offline"
	default:
		return "none"
	}
}

// Tracker derives the sensor's online/offline status from the recency of
// its last push. Initial state is offline, never seen.
// It is safe for concurrent use.
type Tracker struct {
	mu           sync.Mutex
	offlineAfter time.Duration
	lastSeen     time.Time
	seen         bool
	offline      bool
}

// NewTracker creates a tracker with the given silence threshold.
// A zero or negative threshold falls back to OfflineAfter.
func NewTracker(offlineAfter time.Duration) *Tracker {
	if offlineAfter <= 0 {
		offlineAfter = OfflineAfter
	}
	return &Tracker{
		offlineAfter: offlineAfter,
		offline:      true,
	}
}

// RecordSeen notes a push from the sensor at the given time. It returns
// SignalOnline when the sensor was previously offline.
//
// lastSeen never moves backward: a stale retry or a device clock reset
// must not let the sweep falsely mark the sensor offline.
func (t *Tracker) RecordSeen(at time.Time) Signal {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.seen || at.After(t.lastSeen) {
		t.lastSeen = at
	}
	t.seen = true

	if t.offline {
		t.offline = false
		return SignalOnline
	}
	return SignalNone
}

// Reevaluate recomputes the status against wall-clock time. It returns
// SignalOffline exactly once when the silence threshold is crossed and
// SignalNone on every later call until the sensor is seen again.
func (t *Tracker) Reevaluate(now time.Time) Signal {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.seen || t.offline {
		return SignalNone
	}
	if now.Sub(t.lastSeen) > t.offlineAfter {
		t.offline = true
		return SignalOffline
	}
	return SignalNone
}

// Online reports whether the sensor is currently considered reachable.
func (t *Tracker) Online() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.offline
}

// LastSeen returns the effective last-seen time and whether the sensor
// has ever been seen.
func (t *Tracker) LastSeen() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSeen, t.seen
}

// Describe renders a human-readable status line for the chat front-end.
func (t *Tracker) Describe(now time.Time) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.seen {
		return "offline (never seen)"
	}
	elapsed := now.Sub(t.lastSeen).Round(time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	if t.offline {
		return fmt.Sprintf("offline (last seen %s ago)", elapsed)
	}
	return fmt.Sprintf("online (last push %s ago)", elapsed)
}
