package workspaces

import "embed"

// MigrationsFS contains the SQL migrations for PostgreSQL and SQLite.
//
// Root files (data/sql/migrations/*.sql) target PostgreSQL and the sqlite/
// directory holds the SQLite overrides. go-persistence-bun picks the set that
// matches the configured dialect.
//
// Usage:
//
//	import "io/fs"
//	import workspaces "github.com/goliatone/go-workspaces"
//	import persistence "github.com/goliatone/go-persistence-bun"
//
//	migrationsFS, _ := fs.Sub(workspaces.GetMigrationsFS(), "data/sql/migrations")
//	client.RegisterDialectMigrations(
//	    migrationsFS,
//	    persistence.WithDialectSourceLabel("."),
//	    persistence.WithValidationTargets("postgres", "sqlite"),
//	)
//
//go:embed data/sql/migrations/*.sql data/sql/migrations/sqlite/*.sql
var MigrationsFS embed.FS

// GetMigrationsFS exposes the workspace, role, activity and profile
// migrations so host applications can hand them to their migration runner.
func GetMigrationsFS() embed.FS {
	return MigrationsFS
}
