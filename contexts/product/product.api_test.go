package product_test

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-arrower/productstore/contexts/product"
)

func TestMigrations(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{"postgres", "mysql", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			t.Parallel()

			migrations, err := product.Migrations(driver)
			assert.NoError(t, err)

			files, err := fs.Glob(migrations, "*.up.sql")
			assert.NoError(t, err)
			assert.NotEmpty(t, files)
		})
	}

	t.Run("unknown driver", func(t *testing.T) {
		t.Parallel()

		_, err := product.Migrations("oracle")
		assert.Error(t, err)
	})
}
