// Package migrations embeds the schema for every supported database driver.
package migrations

import "embed"

//go:embed sqlite3/*.sql postgres/*.sql
var FS embed.FS
