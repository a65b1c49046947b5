// Package repomanager vends repository implementations for the configured
// backend and applies its schema migrations with goose.
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

type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Messages(db dbx.DBTX) messages.Repository {
	return messages.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return gooseUp(ctx, goose.DialectPostgres, db, migrations.Postgres())
}
