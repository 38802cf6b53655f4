// Package history persists a per-project build log in SQLite under the
// private state directory. The `builds` command reads it back; nothing in
// the build path depends on it succeeding.
package history

import (
	"context"
	"time"
)

// FileName is the database file inside the project state directory.
const FileName = "builds.db"

// Record is one finished build.
type Record struct {
	ID         int64
	BuildID    string
	StartedAt  time.Time
	Duration   time.Duration
	Phase      string // completed | failed
	FailedStep string
	Error      string
	Pages      int
	Prerender  bool
	StaticMode string
}

// Store defines the interface for persisting and retrieving build records.
type Store interface {
	// Append adds a finished build to the log.
	Append(ctx context.Context, rec Record) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)

	// Close closes the store and releases resources.
	Close() error
}
