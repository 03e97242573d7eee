package store

import (
	"database/sql"
	"fmt"
	"sync"
)

// Current schema version
const SchemaVersion = "1"

// SQLite is a SQLite-backed store.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLite creates a new SQLite store at the given path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}

	// Create tables if not exists
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			digest TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			result TEXT NOT NULL,
			ok INTEGER NOT NULL,
			runs INTEGER NOT NULL DEFAULT 1,
			ts TEXT NOT NULL,
			seq INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS runs_seq ON runs (seq);
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{db: db}

	version, err := s.getMetadataUnlocked("schema_version")
	if err != nil {
		db.Close()
		return nil, err
	}
	switch version {
	case "":
		if err := s.setMetadataUnlocked("schema_version", SchemaVersion); err != nil {
			db.Close()
			return nil, err
		}
	case SchemaVersion:
	default:
		db.Close()
		return nil, fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}

	return s, nil
}

// Record stores a run of source.
func (s *SQLite) Record(source, result string, ok bool) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	digest := Digest(source)
	_, err := s.db.Exec(`
		INSERT INTO runs (digest, source, result, ok, runs, ts, seq)
		VALUES (?, ?, ?, ?, 1, datetime('now'), (SELECT COALESCE(MAX(seq), 0) + 1 FROM runs))
		ON CONFLICT(digest) DO UPDATE SET
			result = excluded.result,
			ok = excluded.ok,
			runs = runs.runs + 1,
			ts = excluded.ts,
			seq = excluded.seq
	`, digest, source, result, ok)
	if err != nil {
		return Entry{}, fmt.Errorf("record run: %w", err)
	}

	e, err := s.lookupUnlocked(digest)
	if err != nil {
		return Entry{}, err
	}
	if e == nil {
		return Entry{}, fmt.Errorf("record run: entry %s missing after insert", digest)
	}
	return *e, nil
}

// Recent returns up to limit entries, most recently run first.
func (s *SQLite) Recent(limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := "SELECT digest, source, result, ok, runs, ts FROM runs ORDER BY seq DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Digest, &e.Source, &e.Result, &e.OK, &e.Runs, &e.Ts); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Lookup retrieves an entry by digest.
func (s *SQLite) Lookup(digest string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupUnlocked(digest)
}

// lookupUnlocked retrieves an entry without locking (caller must hold lock).
func (s *SQLite) lookupUnlocked(digest string) (*Entry, error) {
	var e Entry
	err := s.db.QueryRow(
		"SELECT digest, source, result, ok, runs, ts FROM runs WHERE digest = ?", digest,
	).Scan(&e.Digest, &e.Source, &e.Result, &e.OK, &e.Runs, &e.Ts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// GetMetadata retrieves a metadata value by key.
func (s *SQLite) GetMetadata(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getMetadataUnlocked(key)
}

// getMetadataUnlocked retrieves metadata without locking (caller must hold lock).
func (s *SQLite) getMetadataUnlocked(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetMetadata stores a metadata value by key.
func (s *SQLite) SetMetadata(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setMetadataUnlocked(key, value)
}

// setMetadataUnlocked stores metadata without locking (caller must hold lock).
func (s *SQLite) setMetadataUnlocked(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
