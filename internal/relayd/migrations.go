package relayd

import (
	"embed"

	migrate "github.com/rubenv/sql-migrate"

	"github.com/pkg/errors"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

var migrationSource = &migrate.EmbedFileSystemMigrationSource{
	FileSystem: migrationFiles,
	Root:       "migrations",
}

// ApplyMigrations brings the sponsorship ledger schema up to date and
// returns the number of applied migrations.
func (s *Server) ApplyMigrations() (int, error) {
	if s.DB == nil {
		return 0, errors.New("database is not enabled, set RELAY_DB_ENABLED=true")
	}

	n, err := migrate.Exec(s.DB, "postgres", migrationSource, migrate.Up)
	if err != nil {
		return 0, errors.Wrap(err, "applying migrations")
	}

	return n, nil
}
