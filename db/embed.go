// Package db embeds the SQL migrations, one directory per database dialect.
package db

import "embed"

//go:embed migrations
var Migrations embed.FS
