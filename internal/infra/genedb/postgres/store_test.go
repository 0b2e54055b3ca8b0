package postgres

import (
	"database/sql"
	"errors"
	"testing"
)

func TestNewStorePropagatesOpenFailure(t *testing.T) {
	boom := errors.New("dial failed")
	restore := OverrideSQLOpen(func(driver, dsn string) (*sql.DB, error) {
		if driver != "pgx" {
			t.Fatalf("driver = %q, want pgx", driver)
		}
		if dsn != defaultDSN {
			t.Fatalf("dsn = %q, want default applied", dsn)
		}
		return nil, boom
	})
	defer restore()

	if _, err := NewStore(""); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped open failure", err)
	}
}

func TestOverrideSQLOpenRestores(t *testing.T) {
	sentinel := errors.New("sentinel")
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return nil, sentinel })
	restore()
	openMu.Lock()
	current := sqlOpen
	openMu.Unlock()
	if current == nil {
		t.Fatal("sqlOpen nil after restore")
	}
	// The restored function must be the real sql.Open, which succeeds lazily
	// for a registered driver even without a server.
	db, err := current("pgx", "postgres://localhost/virocore_restore_probe?sslmode=disable")
	if err != nil {
		t.Fatalf("restored open: %v", err)
	}
	_ = db.Close()
}
