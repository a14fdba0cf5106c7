// Package migrations embeds the schema so the migrate binary ships as a
// single file.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
