// Package migrations holds the Postgres schema for the quiz service, applied
// with bun/migrate by the migrate and start commands.
package migrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()
