//go:build integration

package tests_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-arrower/productstore/tests"
)

var (
	pgDocker    *tests.PostgresDocker
	mysqlDocker *tests.MySQLDocker
)

func TestMain(m *testing.M) {
	pgDocker = tests.GetPostgresDocker()
	mysqlDocker = tests.GetMySQLDocker()

	//
	// Run tests
	code := m.Run()

	//
	// Cleanup
	pgDocker.Cleanup()
	mysqlDocker.Cleanup()

	os.Exit(code)
}

func TestPostgresDocker_NewTestDatabase(t *testing.T) {
	t.Parallel()

	t.Run("load common file automatically", func(t *testing.T) {
		t.Parallel()

		pg := pgDocker.NewTestDatabase()
		defer pg.Shutdown(context.Background()) //nolint:errcheck

		assertTableNumberOfRows(t, pg.DB, "product", 1)
	})

	t.Run("load common file and fixtures", func(t *testing.T) {
		t.Parallel()

		pg := pgDocker.NewTestDatabase("testdata/fixtures/products.yaml")
		defer pg.Shutdown(context.Background()) //nolint:errcheck

		assertTableNumberOfRows(t, pg.DB, "product", 3)
	})

	t.Run("run multiple tests in parallel", func(t *testing.T) {
		t.Parallel()

		var wg sync.WaitGroup

		const testNumber = 20

		wg.Add(testNumber)

		for range testNumber {
			go func() {
				defer wg.Done()

				pg := pgDocker.NewTestDatabase()
				defer pg.Shutdown(context.Background()) //nolint:errcheck

				assertTableNumberOfRows(t, pg.DB, "product", 1)
			}()
		}

		wg.Wait()
	})
}

func TestPostgresDocker_PrepareDatabase(t *testing.T) { //nolint:paralleltest // works on the shared database
	pg := pgDocker.PrepareDatabase("testdata/fixtures/products.yaml")
	assertTableNumberOfRows(t, pg.DB, "product", 3)

	pg = pgDocker.PrepareDatabase()
	assertTableNumberOfRows(t, pg.DB, "product", 1)
}

func TestMySQLDocker_NewTestDatabase(t *testing.T) {
	t.Parallel()

	db := mysqlDocker.NewTestDatabase("testdata/fixtures/products.yaml")
	defer db.Shutdown(context.Background()) //nolint:errcheck

	assertTableNumberOfRows(t, db.DB, "product", 3)
}

func TestMySQLDocker_PrepareDatabase(t *testing.T) { //nolint:paralleltest // works on the shared database
	db := mysqlDocker.PrepareDatabase("testdata/fixtures/products.yaml")
	assertTableNumberOfRows(t, db.DB, "product", 3)

	db = mysqlDocker.PrepareDatabase()
	assertTableNumberOfRows(t, db.DB, "product", 1)
}

func assertTableNumberOfRows(t *testing.T, db *sql.DB, table string, num int) {
	t.Helper()

	var c int
	_ = db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s;`, table)).Scan(&c) //nolint:noctx

	assert.Equal(t, num, c)
}
