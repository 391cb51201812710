// Package manifest remembers which output files a build wrote and what they
// contained, so later builds can skip identical writes and prune stale files.
package manifest

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

// Entry is one output artifact written by a build.
type Entry struct {
	Path string // relative to the output directory, slash separated
	Hash string
}

// Store is a SQLite-backed manifest of build outputs.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the manifest at dbPath. Use ":memory:" in tests.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create manifest directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS outputs (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		build_id TEXT NOT NULL,
		built_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_outputs_build_id ON outputs(build_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Snapshot returns the recorded hash of every known output path.
func (s *Store) Snapshot(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, "SELECT path, hash FROM outputs")
	if err != nil {
		return nil, fmt.Errorf("query outputs: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, fmt.Errorf("scan output: %w", err)
		}
		out[path] = hash
	}
	return out, rows.Err()
}

// Record upserts entries for buildID in a single transaction.
func (s *Store) Record(ctx context.Context, buildID string, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO outputs (path, hash, build_id, built_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET hash = excluded.hash, build_id = excluded.build_id, built_at = excluded.built_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Path, e.Hash, buildID, now); err != nil {
			return fmt.Errorf("record %s: %w", e.Path, err)
		}
	}
	return tx.Commit()
}

// Prune deletes every recorded path not in keep and returns the removed paths.
func (s *Store) Prune(ctx context.Context, keep map[string]bool) ([]string, error) {
	known, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for path := range known {
		if keep[path] {
			continue
		}
		if _, err := s.db.ExecContext(ctx, "DELETE FROM outputs WHERE path = ?", path); err != nil {
			return removed, fmt.Errorf("delete %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}

// Reset forgets every recorded output.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, "DELETE FROM outputs")
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
