// Package migrations embeds the schema SQL for commodities,
// data_sources, and price_data and applies it via golang-migrate.
package migrations

import "embed"

//go:embed *.sql
var files embed.FS

// FS exposes the embedded migration files for the iofs source driver.
func FS() embed.FS {
	return files
}
