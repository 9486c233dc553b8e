// Package database is the optional durable backing store for the reading
// history. The relay works fully in memory; when a DB path is configured the
// history survives restarts on a best-effort basis.
package database

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"telemon/app/internal/models"
)

// Store wraps the SQLite connection.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS readings (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  taken_at TEXT NOT NULL,
  t REAL NOT NULL,
  h REAL NOT NULL,
  p REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_readings_taken ON readings(taken_at);
`)
	return err
}

// Insert records one reading.
func (s *Store) Insert(r models.Reading) error {
	_, err := s.db.Exec(`INSERT INTO readings (taken_at, t, h, p) VALUES (?,?,?,?)`,
		r.Time.UTC().Format(time.RFC3339), r.Temp, r.Hum, r.Pres)
	return err
}

// LoadSince returns readings taken at or after since, oldest first.
func (s *Store) LoadSince(since time.Time) ([]models.Reading, error) {
	rows, err := s.db.Query(`SELECT taken_at, t, h, p FROM readings
		WHERE taken_at >= ? ORDER BY taken_at ASC`,
		since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Reading
	for rows.Next() {
		var takenAt string
		var r models.Reading
		if err := rows.Scan(&takenAt, &r.Temp, &r.Hum, &r.Pres); err != nil {
			return nil, err
		}
		ts, err := time.Parse(time.RFC3339, takenAt)
		if err != nil {
			// A malformed row is dropped rather than failing the reload.
			continue
		}
		r.Time = ts
		out = append(out, r)
	}
	return out, rows.Err()
}

// Prune deletes readings taken before the given time.
func (s *Store) Prune(before time.Time) error {
	_, err := s.db.Exec(`DELETE FROM readings WHERE taken_at < ?`,
		before.UTC().Format(time.RFC3339))
	return err
}
