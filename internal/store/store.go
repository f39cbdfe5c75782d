// Package store persists run history in an embedded SQLite database.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zduu/star-auto/internal/types"
)

// Session status values.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Store handles all database operations.
type Store struct {
	db *sql.DB
}

// New opens (creating if necessary) the history database at dbPath.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		site TEXT NOT NULL,
		mode TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		cycles_requested INTEGER NOT NULL,
		cycles_completed INTEGER NOT NULL DEFAULT 0,
		likes_given INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS cycles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES sessions(id),
		cycle INTEGER NOT NULL,
		topic_url TEXT NOT NULL DEFAULT '',
		topic_title TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0,
		likes INTEGER NOT NULL DEFAULT 0,
		ok BOOLEAN NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		visited_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS likes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		topic_url TEXT NOT NULL,
		position_key TEXT NOT NULL,
		liked_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);
	CREATE INDEX IF NOT EXISTS idx_cycles_session ON cycles(session_id);
	CREATE INDEX IF NOT EXISTS idx_likes_session ON likes(session_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateSession records the start of a run.
func (s *Store) CreateSession(sess *Session) error {
	_, err := s.db.Exec(`
		INSERT INTO sessions (id, site, mode, started_at, cycles_requested, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sess.ID, sess.Site, sess.Mode, sess.StartedAt, sess.CyclesRequested, sess.Status)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// FinishSession closes a run record with its final counters.
func (s *Store) FinishSession(id string, stats types.RunStats, status, errMsg string) error {
	_, err := s.db.Exec(`
		UPDATE sessions
		SET finished_at = ?, cycles_completed = ?, likes_given = ?, status = ?, error = ?
		WHERE id = ?
	`, time.Now(), stats.CyclesCompleted, stats.LikesGiven, status, errMsg, id)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	return nil
}

// SaveCycle records one cycle outcome.
func (s *Store) SaveCycle(sessionID string, c types.CycleResult) error {
	_, err := s.db.Exec(`
		INSERT INTO cycles (session_id, cycle, topic_url, topic_title, duration_ms, likes, ok, error, visited_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sessionID, c.Cycle, c.TopicURL, c.TopicTitle, c.Duration.Milliseconds(), c.Likes, c.OK(), c.Err, c.VisitedAt)
	if err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}
	return nil
}

// SaveLike records one issued like.
func (s *Store) SaveLike(sessionID string, l types.LikeEvent) error {
	_, err := s.db.Exec(`
		INSERT INTO likes (session_id, topic_url, position_key, liked_at)
		VALUES (?, ?, ?, ?)
	`, sessionID, l.TopicURL, l.PositionKey, l.At)
	if err != nil {
		return fmt.Errorf("insert like: %w", err)
	}
	return nil
}

// RecentSessions returns the latest sessions, newest first.
func (s *Store) RecentSessions(limit int) ([]Session, error) {
	rows, err := s.db.Query(`
		SELECT id, site, mode, started_at, finished_at,
			cycles_requested, cycles_completed, likes_given, status, error
		FROM sessions
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// SessionCycles returns the cycles of one session in visit order.
func (s *Store) SessionCycles(sessionID string) ([]Cycle, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, cycle, topic_url, topic_title, duration_ms, likes, ok, error, visited_at
		FROM cycles
		WHERE session_id = ?
		ORDER BY cycle ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	var cycles []Cycle
	for rows.Next() {
		var c Cycle
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Cycle, &c.TopicURL, &c.TopicTitle,
			&c.DurationMS, &c.Likes, &c.OK, &c.Error, &c.VisitedAt); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

// TotalLikes returns the number of likes issued across all sessions.
func (s *Store) TotalLikes() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM likes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return n, nil
}

func scanSessions(rows *sql.Rows) ([]Session, error) {
	var sessions []Session
	for rows.Next() {
		var sess Session
		var finished sql.NullTime
		if err := rows.Scan(&sess.ID, &sess.Site, &sess.Mode, &sess.StartedAt, &finished,
			&sess.CyclesRequested, &sess.CyclesCompleted, &sess.LikesGiven, &sess.Status, &sess.Error); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if finished.Valid {
			sess.FinishedAt = finished.Time
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}
