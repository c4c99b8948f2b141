// Package migrations embeds the goose SQL migrations for the surfalert
// schema.
package migrations

import "embed"

// FS holds all *.sql migration files.
//
//go:embed *.sql
var FS embed.FS
