// Package migrations embeds the model schema migrations into the binary,
// so `import` and a SQLite-backed `run` need no .sql files on disk.
package migrations

import "embed"

// FS holds the *.up.sql and *.down.sql files at its root.
//
//go:embed *.sql
var FS embed.FS

// Dir is the directory within FS that holds the migrations.
const Dir = "."
