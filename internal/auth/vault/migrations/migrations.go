// Package migrations embeds the goose migration files for the vault's
// on-device sqlite database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
