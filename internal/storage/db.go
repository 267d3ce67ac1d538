package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// EnvDBPath overrides the database location when set.
const EnvDBPath = "TEAHOUSE_DB"

// DefaultDBPath returns the default teahouse DB location, relative to the host's working directory.
func DefaultDBPath() string {
	return filepath.Join("data", "teahouse", "teahouse.db")
}

// ResolveDBPath picks the database path: explicit value, then $TEAHOUSE_DB, then the default.
func ResolveDBPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(EnvDBPath); p != "" {
		return p
	}
	return DefaultDBPath()
}

// DBTX is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// OpenSQLite opens (and creates if missing) the SQLite database at the provided path.
// Parent directories are created as needed.
func OpenSQLite(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Set("_txlock", "immediate")
	db, err := sql.Open("sqlite", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// Open opens the store and brings schema and default rows up to date.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := Seed(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
