// Package migrations embeds the SQL schema migrations
package migrations

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql
var migrationsFS embed.FS

// GetSource exposes the embedded migrations as a migrate source driver
func GetSource() (source.Driver, error) {
	sub, err := fs.Sub(migrationsFS, "sql")
	if err != nil {
		return nil, fmt.Errorf("accessing embedded migrations: %w", err)
	}

	driver, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("creating migration source: %w", err)
	}

	return driver, nil
}
