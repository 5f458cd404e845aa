// Package migrations provides embedded migration SQL files, one
// directory per dialect.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
