// Package dbx provides tiny DB abstractions shared by repositories:
// a minimal interface (DBTX) implemented by both *sql.DB and *sql.Tx, and
// DSN-based selection of the storage backend.
package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect names the SQL flavour behind a connection.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

var ErrUnsupportedDSN = errors.New("unsupported database dsn")

// ParseDSN picks the database/sql driver for dsn and returns the source
// string to hand to it.
//
//	postgres://... postgresql://... host=...   -> pgx
//	sqlite://path                              -> sqlite, "path"
//	file:...  :memory:                         -> sqlite, unchanged
func ParseDSN(dsn string) (driver, source string, dialect Dialect, err error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"),
		strings.Contains(dsn, "host="):
		return "pgx", dsn, DialectPostgres, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return "", "", "", fmt.Errorf("%w: empty sqlite path", ErrUnsupportedDSN)
		}
		return "sqlite", path, DialectSQLite, nil
	case strings.HasPrefix(dsn, "file:"), dsn == ":memory:":
		return "sqlite", dsn, DialectSQLite, nil
	default:
		return "", "", "", ErrUnsupportedDSN
	}
}

// Open opens and pings the database named by dsn. SQLite handles are
// limited to a single connection so writers never contend for the file lock.
func Open(ctx context.Context, dsn string) (*sql.DB, Dialect, error) {
	driver, source, dialect, err := ParseDSN(dsn)
	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("ping %s: %w", dialect, err)
	}
	return db, dialect, nil
}
