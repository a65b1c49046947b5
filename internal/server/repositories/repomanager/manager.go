package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/gophcoach/internal/dbx"
	"github.com/dmitrijs2005/gophcoach/internal/server/repositories/messages"
	"github.com/dmitrijs2005/gophcoach/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Messages(db dbx.DBTX) messages.Repository
}

// New returns the manager matching dialect.
func New(dialect dbx.Dialect) (RepositoryManager, error) {
	switch dialect {
	case dbx.DialectPostgres:
		return &PostgresRepositoryManager{}, nil
	case dbx.DialectSQLite:
		return &SQLiteRepositoryManager{}, nil
	default:
		return nil, fmt.Errorf("%w: dialect %q", dbx.ErrUnsupportedDSN, dialect)
	}
}

// gooseUp is a seam for testing the goose provider run.
var gooseUp = func(ctx context.Context, dialect goose.Dialect, db *sql.DB, fsys fs.FS) error {
	p, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return err
	}
	_, err = p.Up(ctx)
	return err
}
