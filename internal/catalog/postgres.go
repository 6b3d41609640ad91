package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const defaultPostgresDSN = "postgres://localhost/datapack?sslmode=disable"

// Postgres persists the catalog snapshot to a Postgres table, mirroring the
// SQLite driver's semantics for shared multi-host catalogs.
type Postgres struct {
	*Memory
	db *sql.DB
	mu sync.Mutex
}

// NewPostgres opens a Postgres-backed catalog using dsn (falls back to a
// localhost default), ensures the snapshot table exists, and hydrates the
// in-memory index.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS catalog (
		bucket TEXT PRIMARY KEY,
		payload BYTEA NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create catalog table: %w", err)
	}
	p := &Postgres{Memory: NewMemory(), db: db}
	if err := p.load(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Postgres) load(ctx context.Context) error {
	var payload []byte
	err := p.db.QueryRowContext(ctx, `SELECT payload FROM catalog WHERE bucket = 'packages'`).Scan(&payload)
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
	p.Import(recs)
	return nil
}

func (p *Postgres) Put(ctx context.Context, rec Record) error {
	if err := p.Memory.Put(ctx, rec); err != nil {
		return err
	}
	return p.persist(ctx)
}

func (p *Postgres) persist(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	payload, err := json.Marshal(p.Snapshot())
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if _, err := p.db.ExecContext(ctx,
		`INSERT INTO catalog (bucket, payload) VALUES ('packages', $1)
		 ON CONFLICT (bucket) DO UPDATE SET payload = EXCLUDED.payload`, payload); err != nil {
		return fmt.Errorf("persist catalog: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error { return p.db.Close() }
