package migrations

import "embed"

// FS contains embedded SQLite migrations for recruit storage.
//
//go:embed *.sql
var FS embed.FS
