package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates or opens the build log inside a project state directory,
// creating the directory when missing.
func Open(stateDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return NewSQLiteStore(filepath.Join(stateDir, FileName))
}

// NewSQLiteStore creates a new SQLite-backed build log. Use ":memory:" for
// an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		phase TEXT NOT NULL,
		failed_step TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		pages INTEGER NOT NULL DEFAULT 0,
		prerender INTEGER NOT NULL DEFAULT 0,
		static_mode TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append adds a finished build to the log.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prerender := 0
	if rec.Prerender {
		prerender = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (build_id, started_at, duration_ms, phase, failed_step, error, pages, prerender, static_mode)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.BuildID, rec.StartedAt.Unix(), rec.Duration.Milliseconds(),
		rec.Phase, rec.FailedStep, rec.Error, rec.Pages, prerender, rec.StaticMode,
	)
	if err != nil {
		return fmt.Errorf("insert build record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, build_id, started_at, duration_ms, phase, failed_step, error, pages, prerender, static_mode
		 FROM builds ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var startedUnix, durationMS int64
		var prerender int
		if err := rows.Scan(&rec.ID, &rec.BuildID, &startedUnix, &durationMS,
			&rec.Phase, &rec.FailedStep, &rec.Error, &rec.Pages, &prerender, &rec.StaticMode); err != nil {
			return nil, fmt.Errorf("scan build record: %w", err)
		}
		rec.StartedAt = time.Unix(startedUnix, 0)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.Prerender = prerender != 0
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return records, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
