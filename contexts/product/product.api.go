// Package product is the public api of the product context.
package product

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed migrations
var migrations embed.FS

// Migrations returns the schema of the product context for the given storage driver,
// with the *.up.sql files at the root of the returned fs.
func Migrations(driver string) (fs.FS, error) {
	sub, err := fs.Sub(migrations, "migrations/"+driver)
	if err != nil {
		return nil, fmt.Errorf("no migrations for driver %s: %w", driver, err)
	}

	if _, err = fs.Stat(sub, "000001_create_product.up.sql"); err != nil {
		return nil, fmt.Errorf("no migrations for driver %s: %w", driver, err)
	}

	return sub, nil
}
