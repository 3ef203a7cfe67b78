// Package migrations embeds the schema migrations of the SQL remote backends.
package migrations

import "embed"

// Postgres holds the goose migrations for the postgres backend, under "postgres".
//
//go:embed postgres/*.sql
var Postgres embed.FS
