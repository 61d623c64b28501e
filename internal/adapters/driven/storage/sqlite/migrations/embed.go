// Package migrations carries the schema migration files for the chunk
// store.
package migrations

import "embed"

// FS holds the migration SQL, embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
