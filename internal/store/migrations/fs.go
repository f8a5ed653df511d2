package migrations

import "embed"

// FS embeds the goose migration set applied to the embedded store at
// startup.
//
//go:embed *.sql
var FS embed.FS
