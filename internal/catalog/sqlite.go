package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLite persists the catalog to a single SQLite table as a JSON snapshot,
// rewritten after every successful mutation.
type SQLite struct {
	*Memory
	db *sql.DB
	mu sync.Mutex
}

// NewSQLite opens (creating if needed) a SQLite-backed catalog at path and
// hydrates the in-memory index from any existing snapshot.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = "catalog.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS catalog (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create catalog table: %w", err)
	}
	s := &SQLite{Memory: NewMemory(), db: db}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLite) load() error {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM catalog WHERE bucket = 'packages'`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("select catalog: %w", err)
	}
	var recs []Record
	if err := json.Unmarshal(payload, &recs); err != nil {
		return fmt.Errorf("decode catalog: %w", err)
	}
	s.Import(recs)
	return nil
}

func (s *SQLite) Put(ctx context.Context, rec Record) error {
	if err := s.Memory.Put(ctx, rec); err != nil {
		return err
	}
	return s.persist(ctx)
}

func (s *SQLite) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, err := json.Marshal(s.Snapshot())
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO catalog (bucket, payload) VALUES ('packages', ?)
		 ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload`, payload); err != nil {
		return fmt.Errorf("persist catalog: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error { return s.db.Close() }
