// Package progress persists last-watched playback positions per video path.
package progress

import (
	"database/sql"
	"sync"
	"time"

	"github.com/maszaen/reelhouse/internal/clock"
	"github.com/maszaen/reelhouse/internal/db"
	"github.com/maszaen/reelhouse/internal/logger"
)

// SaveInterval is the minimum wall-clock time between persisted writes for
// the same video. Saves arriving faster than this are silently dropped.
const SaveInterval = 5 * time.Second

// Record is one persisted playback position.
type Record struct {
	VideoPath       string    `json:"videoPath"`
	PositionSeconds float64   `json:"positionSeconds"`
	DurationSeconds float64   `json:"durationSeconds"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Store reads and writes playback positions. Writes are throttled per path;
// reads and clears always hit the database.
type Store struct {
	db    *sql.DB
	clock clock.Clock

	mu        sync.Mutex
	lastWrite map[string]time.Time
}

// NewStore creates a Store backed by the given database.
func NewStore(database *sql.DB, clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &Store{
		db:        database,
		clock:     clk,
		lastWrite: make(map[string]time.Time),
	}
}

// Save upserts the playback position for videoPath. Writes within
// SaveInterval of the previous write for the same path are dropped.
// Returns true if a write was persisted.
func (s *Store) Save(videoPath string, positionSeconds, durationSeconds float64) (bool, error) {
	now := s.clock.Now()

	s.mu.Lock()
	if last, ok := s.lastWrite[videoPath]; ok && now.Sub(last) < SaveInterval {
		s.mu.Unlock()
		return false, nil
	}
	s.lastWrite[videoPath] = now
	s.mu.Unlock()

	_, err := db.ExecWithRetry(s.db, `
		INSERT INTO playback_progress (video_path, position_seconds, duration_seconds, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(video_path) DO UPDATE SET
			position_seconds = excluded.position_seconds,
			duration_seconds = excluded.duration_seconds,
			updated_at = excluded.updated_at
	`, videoPath, positionSeconds, durationSeconds, now.UTC())
	if err != nil {
		// Allow the next attempt through instead of waiting out the interval
		s.mu.Lock()
		delete(s.lastWrite, videoPath)
		s.mu.Unlock()
		return false, err
	}

	logger.Debugf("Saved playback position %.1fs for %s", positionSeconds, videoPath)
	return true, nil
}

// Get returns the saved position for videoPath, or ok=false when none exists.
func (s *Store) Get(videoPath string) (Record, bool, error) {
	var rec Record
	err := s.db.QueryRow(`
		SELECT video_path, position_seconds, duration_seconds, updated_at
		FROM playback_progress WHERE video_path = ?
	`, videoPath).Scan(&rec.VideoPath, &rec.PositionSeconds, &rec.DurationSeconds, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// Clear removes the record for videoPath. Clearing a path with no record is
// not an error.
func (s *Store) Clear(videoPath string) error {
	_, err := db.ExecWithRetry(s.db, "DELETE FROM playback_progress WHERE video_path = ?", videoPath)
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.lastWrite, videoPath)
	s.mu.Unlock()

	logger.Debugf("Cleared playback position for %s", videoPath)
	return nil
}

// All returns every saved record, most recently updated first.
func (s *Store) All() ([]Record, error) {
	rows, err := db.QueryWithRetry(s.db, `
		SELECT video_path, position_seconds, duration_seconds, updated_at
		FROM playback_progress ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.VideoPath, &rec.PositionSeconds, &rec.DurationSeconds, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
