// Package migrations embeds the goose SQL migrations for every supported
// storage backend.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Postgres returns the migration set for PostgreSQL.
func Postgres() fs.FS { return sub("postgres") }

// SQLite returns the migration set for SQLite.
func SQLite() fs.FS { return sub("sqlite") }

func sub(dir string) fs.FS {
	f, err := fs.Sub(files, dir)
	if err != nil {
		panic(err)
	}
	return f
}
