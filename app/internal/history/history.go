package history

import (
	"log"
	"sync"
	"time"

	"telemon/app/internal/models"
)

// RetentionWindow is the rolling window of readings kept in memory.
// Pruning runs inline on every append; there is no separate sweep.
const RetentionWindow = 24 * time.Hour

// Persister is an optional durable backing store for the history.
// Failures are logged by the store and never surfaced to the ingest path;
// durability across restarts is best effort only.
type Persister interface {
	Insert(r models.Reading) error
	LoadSince(since time.Time) ([]models.Reading, error)
	Prune(before time.Time) error
}

// Store is an append-only, time-pruned sequence of readings.
// It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	readings []models.Reading
	persist  Persister
}

// NewStore creates an empty store. persist may be nil for memory-only
// operation. When a persister is given, readings from the last 24 hours
// are reloaded so a restart does not start with an empty chart.
func NewStore(persist Persister) *Store {
	s := &Store{persist: persist}
	if persist != nil {
		loaded, err := persist.LoadSince(time.Now().Add(-RetentionWindow))
		if err != nil {
			log.Printf("history: reload failed: %v", err)
		} else {
			s.readings = loaded
		}
	}
	return s
}

// Append inserts a reading at the end and drops everything older than the
// retention window relative to the new reading's timestamp.
func (s *Store) Append(r models.Reading) {
	s.mu.Lock()
	s.readings = append(s.readings, r)
	cutoff := r.Time.Add(-RetentionWindow)
	i := 0
	for i < len(s.readings) && s.readings[i].Time.Before(cutoff) {
		i++
	}
	if i > 0 {
		s.readings = append(s.readings[:0:0], s.readings[i:]...)
	}
	s.mu.Unlock()

	if s.persist != nil {
		if err := s.persist.Insert(r); err != nil {
			log.Printf("history: persist failed: %v", err)
		}
		if err := s.persist.Prune(cutoff); err != nil {
			log.Printf("history: prune failed: %v", err)
		}
	}
}

// Snapshot returns a copy of the retained readings in insertion order.
// The caller may iterate it freely while appends continue.
func (s *Store) Snapshot() []models.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Reading, len(s.readings))
	copy(out, s.readings)
	return out
}

// Latest returns the most recent reading, if any.
func (s *Store) Latest() (models.Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.readings) == 0 {
		return models.Reading{}, false
	}
	return s.readings[len(s.readings)-1], true
}

// Len reports the number of retained readings.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.readings)
}
