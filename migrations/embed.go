// Package migrations embeds the SQL schema into the binary. Importing it
// registers the files with the database package.
package migrations

import (
	"embed"

	"github.com/nerrad567/parkrunner-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.RegisterMigrations(migrationsFS, ".")
}
