// Package migrations embeds SQL migration files for goose.
//
// Migration files follow the naming convention: YYYYMMDDHHMMSS_description.sql
// and are applied in lexical order.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
