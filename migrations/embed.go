// Package migrations embeds the schema migrations applied by
// internal/platform/postgres.Migrate and cmd/migrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
