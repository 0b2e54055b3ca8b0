// Package genedb selects and loads gene/entity reference database providers.
package genedb

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"virocore/internal/infra/genedb/memory"
	"virocore/internal/infra/genedb/postgres"
	"virocore/internal/infra/genedb/sqlite"
	"virocore/pkg/domain"
)

// Driver identifies a concrete reference database implementation.
type Driver string

const (
	DriverMemory   Driver = "memory"   // in-memory only (tests / ephemeral)
	DriverJSON     Driver = "json"     // JSON seed file loaded into memory
	DriverSQLite   Driver = "sqlite"   // embedded sqlite file
	DriverPostgres Driver = "postgres" // PostgreSQL server
)

// Snapshot is the provider-neutral wire form of the reference data.
type Snapshot = memory.Snapshot

// OpenFromEnv selects a provider using environment variables. Defaults to
// sqlite when unset.
//
//	VIROCORE_GENEDB_DRIVER: memory|json|sqlite|postgres (default sqlite)
//	VIROCORE_GENEDB_PATH: path to the json or sqlite file
//	VIROCORE_GENEDB_DSN: postgres DSN when driver=postgres
func OpenFromEnv() (domain.Database, error) {
	driver := os.Getenv("VIROCORE_GENEDB_DRIVER")
	if driver == "" {
		driver = string(DriverSQLite)
	}
	switch Driver(driver) {
	case DriverMemory:
		return memory.NewStore(), nil
	case DriverJSON:
		path := os.Getenv("VIROCORE_GENEDB_PATH")
		if path == "" {
			return nil, fmt.Errorf("VIROCORE_GENEDB_PATH required for json driver")
		}
		return OpenJSONFile(path)
	case DriverSQLite:
		path := os.Getenv("VIROCORE_GENEDB_PATH")
		return sqlite.NewStore(path)
	case DriverPostgres:
		dsn := os.Getenv("VIROCORE_GENEDB_DSN")
		return postgres.NewStore(dsn)
	default:
		return nil, fmt.Errorf("unknown genedb driver %s", driver)
	}
}

// FromJSON decodes a reference snapshot ({"genes":[...],"entities":[...]})
// into a fresh in-memory store.
func FromJSON(r io.Reader) (*memory.Store, error) {
	var snapshot Snapshot
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("decode reference data: %w", err)
	}
	store := memory.NewStore()
	if err := store.ImportSnapshot(snapshot); err != nil {
		return nil, err
	}
	return store, nil
}

// OpenJSONFile loads a JSON seed file into a fresh in-memory store.
func OpenJSONFile(path string) (*memory.Store, error) {
	f, err := os.Open(path) // #nosec G304 -- operator-supplied seed path
	if err != nil {
		return nil, fmt.Errorf("open reference data: %w", err)
	}
	defer func() { _ = f.Close() }()
	return FromJSON(f)
}
