// Package sqlite provides a SQLite-backed gene/entity reference database. The
// definitions live in two tables as JSON payloads ordered by position; at open
// time they hydrate an embedded in-memory store, which serves all lookups.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"virocore/internal/infra/genedb/memory"
	"virocore/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time contract assertion.
var _ domain.Database = (*Store)(nil)

// Store serves reference lookups from memory and keeps the definitions in a
// SQLite file. Seed rewrites the file; lookups never touch the database after
// hydration.
type Store struct {
	*memory.Store
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the SQLite file at path and hydrates
// the in-memory store from it.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "virocore.db"
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
	for _, ddl := range []string{
		`CREATE TABLE IF NOT EXISTS genes (
			position INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			payload BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS entities (
			position INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			payload BLOB NOT NULL
		)`,
	} {
		if _, err := db.Exec(ddl); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create tables: %w", err)
		}
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	var snapshot memory.Snapshot

	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM entities ORDER BY position`)
	if err != nil {
		return fmt.Errorf("select entities: %w", err)
	}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan entity: %w", err)
		}
		var def domain.EntityDefinition
		if err := json.Unmarshal(payload, &def); err != nil {
			_ = rows.Close()
			return fmt.Errorf("decode entity: %w", err)
		}
		snapshot.Entities = append(snapshot.Entities, def)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterate entities: %w", err)
	}
	_ = rows.Close()

	rows, err = s.db.QueryContext(ctx, `SELECT payload FROM genes ORDER BY position`)
	if err != nil {
		return fmt.Errorf("select genes: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return fmt.Errorf("scan gene: %w", err)
		}
		var def domain.GeneDefinition
		if err := json.Unmarshal(payload, &def); err != nil {
			return fmt.Errorf("decode gene: %w", err)
		}
		snapshot.Genes = append(snapshot.Genes, def)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate genes: %w", err)
	}
	return s.ImportSnapshot(snapshot)
}

// Seed replaces the database contents with the snapshot and rehydrates the
// in-memory store. All-or-nothing: a failed write leaves the file untouched.
func (s *Store) Seed(ctx context.Context, snapshot memory.Snapshot) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, table := range []string{"genes", "entities"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			retErr = fmt.Errorf("clear %s: %w", table, err)
			return retErr
		}
	}
	for i, def := range snapshot.Entities {
		payload, err := json.Marshal(def)
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO entities(position,name,payload) VALUES(?,?,?)`, i, def.Name, payload); err != nil {
			retErr = fmt.Errorf("insert entity %s: %w", def.Name, err)
			return retErr
		}
	}
	for i, def := range snapshot.Genes {
		payload, err := json.Marshal(def)
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO genes(position,name,payload) VALUES(?,?,?)`, i, def.Name, payload); err != nil {
			retErr = fmt.Errorf("insert gene %s: %w", def.Name, err)
			return retErr
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return s.ImportSnapshot(snapshot)
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
