package buildlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no build record matches.
var ErrNotFound = errors.New("no build record found")

// Record is one persisted build.
type Record struct {
	ID          string
	Signature   string // hash of content plus configuration
	ContentHash string
	Outcome     string
	Pages       int
	Posts       int
	Assets      int
	Duration    time.Duration
	StartedAt   time.Time
}

// Store defines the build history interface.
type Store interface {
	// Append persists a finished build.
	Append(ctx context.Context, rec *Record) error

	// Last returns the most recent build record.
	Last(ctx context.Context) (*Record, error)

	// History returns the newest builds, most recent first.
	History(ctx context.Context, limit int) ([]*Record, error)

	// Close releases resources.
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) the build history database.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		signature TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		outcome TEXT NOT NULL,
		pages INTEGER NOT NULL,
		posts INTEGER NOT NULL,
		assets INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		started_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	CREATE INDEX IF NOT EXISTS idx_builds_signature ON builds(signature);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append persists a finished build. A missing ID or start time is filled in.
func (s *SQLiteStore) Append(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO builds (id, signature, content_hash, outcome, pages, posts, assets, duration_ms, started_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		rec.ID, rec.Signature, rec.ContentHash, rec.Outcome,
		rec.Pages, rec.Posts, rec.Assets,
		rec.Duration.Milliseconds(), rec.StartedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert build record: %w", err)
	}
	return nil
}

// Last returns the most recent build record, or ErrNotFound.
func (s *SQLiteStore) Last(ctx context.Context) (*Record, error) {
	recs, err := s.History(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs[0], nil
}

// History returns up to limit builds, newest first.
func (s *SQLiteStore) History(ctx context.Context, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, signature, content_hash, outcome, pages, posts, assets, duration_ms, started_at FROM builds ORDER BY started_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query build records: %w", err)
	}
	defer rows.Close()

	var recs []*Record
	for rows.Next() {
		var rec Record
		var durationMS, startedUnix int64
		if err := rows.Scan(&rec.ID, &rec.Signature, &rec.ContentHash, &rec.Outcome,
			&rec.Pages, &rec.Posts, &rec.Assets, &durationMS, &startedUnix); err != nil {
			return nil, fmt.Errorf("scan build record: %w", err)
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.StartedAt = time.Unix(startedUnix, 0)
		recs = append(recs, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return recs, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// ShouldSkip reports whether a build with the given signature can be skipped
// because the last recorded build succeeded with the same signature.
func ShouldSkip(ctx context.Context, store Store, signature string) (bool, error) {
	last, err := store.Last(ctx)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return last.Outcome == "success" && last.Signature == signature, nil
}
