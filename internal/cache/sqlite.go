package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	fetched_at INTEGER NOT NULL
)`

const upsertEntry = `
INSERT INTO entries (key, payload, fetched_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`

// SQLite is a Store persisted to a local SQLite file. It keeps entries across
// runs; expiry is checked on read against the configured TTL.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
	log zerolog.Logger
}

// OpenSQLite opens (creating if needed) the cache database at path.
func OpenSQLite(path string, ttl time.Duration, log zerolog.Logger) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	// A single connection serialises writers; reads are short point lookups.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return &SQLite{
		db:  db,
		ttl: ttl,
		now: time.Now,
		log: log.With().Str("component", "cache.sqlite").Logger(),
	}, nil
}

// Read treats storage and decode failures as misses and logs them.
func (s *SQLite) Read(key string) (Entry, bool) {
	var (
		payload   []byte
		fetchedAt int64
	)
	err := s.db.QueryRow(`SELECT payload, fetched_at FROM entries WHERE key = ?`, key).Scan(&payload, &fetchedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return Entry{}, false
	}
	if s.ttl > 0 && s.now().Sub(time.Unix(0, fetchedAt)) > s.ttl {
		return Entry{}, false
	}
	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache entry undecodable")
		return Entry{}, false
	}
	return entry, true
}

func (s *SQLite) Write(entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin cache write: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, e := range entries {
		if e.Key == "" {
			return ErrEmptyKey
		}
		if e.FetchedAt.IsZero() {
			e.FetchedAt = s.now()
		}
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode cache entry %q: %w", e.Key, err)
		}
		if _, err := tx.Exec(upsertEntry, e.Key, payload, e.FetchedAt.UnixNano()); err != nil {
			return fmt.Errorf("write cache entry %q: %w", e.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cache write: %w", err)
	}
	return nil
}

// Purge deletes entries older than the TTL and returns how many were removed.
func (s *SQLite) Purge() (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl).UnixNano()
	res, err := s.db.Exec(`DELETE FROM entries WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
