package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophcoach/internal/dbx"
	"github.com/dmitrijs2005/gophcoach/internal/server/migrations"
	"github.com/dmitrijs2005/gophcoach/internal/server/repositories/messages"
	"github.com/dmitrijs2005/gophcoach/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

// SQLiteRepositoryManager backs single-node and test deployments.
type SQLiteRepositoryManager struct{}

func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Messages(db dbx.DBTX) messages.Repository {
	return messages.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return gooseUp(ctx, goose.DialectSQLite3, db, migrations.SQLite())
}
