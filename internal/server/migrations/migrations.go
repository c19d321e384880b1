// Package migrations embeds the server schema, one directory per dialect.
package migrations

import (
	"embed"
	"io/fs"

	"github.com/dmitrijs2005/cryptnotes/internal/dbx"
)

//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS

// For returns the migration files of dialect d.
func For(d dbx.Dialect) (fs.FS, error) {
	if d == dbx.Postgres {
		return fs.Sub(Migrations, "postgres")
	}
	return fs.Sub(Migrations, "sqlite")
}
