// Package postgres provides a Postgres-backed gene/entity reference database
// that mirrors the SQLite provider: definitions live as JSONB payloads ordered
// by position and hydrate an embedded in-memory store on open.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"virocore/internal/infra/genedb/memory"
	"virocore/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertion.
var _ domain.Database = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/virocore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store serves reference lookups from memory while keeping the definitions in
// Postgres.
type Store struct {
	*memory.Store
	db *sql.DB
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to defaultDSN), ensures the reference tables exist, and hydrates the
// in-memory store.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureTables(ctx, db); err != nil {
		return nil, err
	}
	s := &Store{Store: memory.NewStore(), db: db}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func ensureTables(ctx context.Context, db *sql.DB) error {
	for _, ddl := range []string{
		`CREATE TABLE IF NOT EXISTS genes (
			position INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			payload JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS entities (
			position INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			payload JSONB NOT NULL
		)`,
	} {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("ensure tables: %w", err)
		}
	}
	return nil
}

func (s *Store) load(ctx context.Context) error {
	var snapshot memory.Snapshot

	if err := queryPayloads(ctx, s.db, `SELECT payload FROM entities ORDER BY position`, func(payload []byte) error {
		var def domain.EntityDefinition
		if err := json.Unmarshal(payload, &def); err != nil {
			return fmt.Errorf("decode entity: %w", err)
		}
		snapshot.Entities = append(snapshot.Entities, def)
		return nil
	}); err != nil {
		return err
	}
	if err := queryPayloads(ctx, s.db, `SELECT payload FROM genes ORDER BY position`, func(payload []byte) error {
		var def domain.GeneDefinition
		if err := json.Unmarshal(payload, &def); err != nil {
			return fmt.Errorf("decode gene: %w", err)
		}
		snapshot.Genes = append(snapshot.Genes, def)
		return nil
	}); err != nil {
		return err
	}
	return s.ImportSnapshot(snapshot)
}

func queryPayloads(ctx context.Context, db *sql.DB, query string, fn func([]byte) error) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if err := fn(payload); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate: %w", err)
	}
	return nil
}

// Seed replaces the database contents with the snapshot and rehydrates the
// in-memory store.
func (s *Store) Seed(ctx context.Context, snapshot memory.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, table := range []string{"genes", "entities"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	for i, def := range snapshot.Entities {
		payload, err := json.Marshal(def)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO entities(position,name,payload) VALUES($1,$2,$3)`, i, def.Name, payload); err != nil {
			return fmt.Errorf("insert entity %s: %w", def.Name, err)
		}
	}
	for i, def := range snapshot.Genes {
		payload, err := json.Marshal(def)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO genes(position,name,payload) VALUES($1,$2,$3)`, i, def.Name, payload); err != nil {
			return fmt.Errorf("insert gene %s: %w", def.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return s.ImportSnapshot(snapshot)
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore
// function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
