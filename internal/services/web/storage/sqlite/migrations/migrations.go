// Package migrations embeds the bookmark store schema.
package migrations

import "embed"

// FS holds the SQL migrations in filename order.
//
//go:embed *.sql
var FS embed.FS
