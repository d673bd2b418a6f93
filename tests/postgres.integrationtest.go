//go:build integration

package tests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/go-testfixtures/testfixtures/v3"
	"github.com/khaiql/dbcleaner"
	"github.com/khaiql/dbcleaner/engine"
	"github.com/ory/dockertest/v3"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/go-arrower/productstore/contexts/product"
	"github.com/go-arrower/productstore/postgres"
	"github.com/go-arrower/productstore/secret"
)

// CommonFixture is loaded before all other fixtures, if it exists relative to the calling test.
const CommonFixture = "testdata/fixtures/_common.yaml"

//nolint:gochecknoglobals // the variables are used on purpose for a singleton pattern.
var (
	muPostgres        = &sync.Mutex{}
	singletonPostgres *PostgresDocker
)

// PostgresDocker is a postgres server running in docker.
type PostgresDocker struct {
	pg        *postgres.Handler
	container *Container
}

// GetPostgresDocker returns a fully connected and migrated postgres.
// Subsequent calls return the same instance to prevent multiple docker containers to spin up,
// if you have a lot of integration tests running in parallel.
// In case of an issue, it panics.
func GetPostgresDocker() *PostgresDocker {
	muPostgres.Lock()
	defer muPostgres.Unlock()

	if singletonPostgres != nil {
		return singletonPostgres
	}

	var (
		pgHandler *postgres.Handler
		conf      = defaultPGConf()
	)

	options := defaultPGRunOptions(conf)
	options.Name = fmt.Sprintf("productstore-testing-postgres-%d", rand.Intn(1000)) //nolint:gosec,mnd // no need for secure number, just prevent collisions

	container, err := StartContainer(options, "5432/tcp", func(port int) error {
		conf.Port = port

		handler, err := postgres.ConnectAndMigrate(context.Background(), conf, noop.NewTracerProvider())
		if err != nil {
			return err //nolint:wrapcheck
		}

		pgHandler = handler

		return nil
	})
	if err != nil {
		panic(err)
	}

	singletonPostgres = &PostgresDocker{pg: pgHandler, container: container}

	return singletonPostgres
}

func defaultPGConf() postgres.Config {
	migrations, err := product.Migrations("postgres")
	if err != nil {
		panic(err)
	}

	return postgres.Config{ //nolint:exhaustruct // port is known after the container started
		User:       "productstore",
		Password:   secret.New("secret"),
		Database:   "productstore_test",
		Host:       "localhost",
		MaxConns:   10, //nolint:mnd
		Migrations: migrations,
	}
}

func defaultPGRunOptions(conf postgres.Config) *dockertest.RunOptions {
	return &dockertest.RunOptions{ //nolint:exhaustruct // only set required configuration
		Repository: "postgres",
		Tag:        "16",
		Env: []string{
			"POSTGRES_USER=" + conf.User,
			"POSTGRES_PASSWORD=" + conf.Password.Secret(),
			"POSTGRES_DB=" + conf.Database,
		},
		Cmd: []string{"-c", "max_connections=1000"},
	}
}

// NewTestDatabase creates a new database, connects to it, and applies all migrations.
// Afterwards, it loads all fixtures from files.
// Use it in integration tests to create a valid database state for your test.
// CommonFixture is always loaded first, if it exists.
// It can be used in parallel and works around the limitations of go-testfixtures/testfixtures.
// In case of an issue, it panics.
func (pd *PostgresDocker) NewTestDatabase(files ...string) *postgres.Handler {
	newDB := randomDatabaseName()

	_, err := pd.pg.PGx.Exec(context.Background(), fmt.Sprintf("CREATE DATABASE %s;", newDB))
	if err != nil {
		panic(err)
	}

	conf := pd.pg.Config
	conf.Database = newDB
	conf.MaxConns = 2

	handler, err := postgres.ConnectAndMigrate(context.Background(), conf, noop.NewTracerProvider())
	if err != nil {
		panic(err)
	}

	loadFixtures(handler.DB, "postgres", files)

	return handler
}

// PrepareDatabase truncates all tables of the shared database and loads the fixtures from files.
// CommonFixture is always loaded first, if it exists.
// In case of an issue, it panics.
func (pd *PostgresDocker) PrepareDatabase(files ...string) *postgres.Handler {
	var tables []string // all tables, that will be truncated

	err := pgxscan.Select(context.Background(), pd.pg.PGx, &tables,
		`SELECT table_schema || '.' || table_name
		FROM information_schema.tables
		WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
		  AND table_type = 'BASE TABLE'
		  AND table_name <> 'schema_migrations'`,
	)
	if err != nil {
		panic(err)
	}

	c := pd.pg.Config
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User, c.Password.Secret(), c.Host, c.Port, c.Database)

	cleaner := dbcleaner.New()
	cleaner.SetEngine(engine.NewPostgresEngine(dsn))
	cleaner.Clean(tables...)
	_ = cleaner.Close()

	loadFixtures(pd.pg.DB, "postgres", files)

	return pd.pg
}

// Cleanup closes the connections and releases the docker container.
// It cannot be deferred in TestMain, if it exits with os.Exit(code), as that does not execute the defer stack.
// In case of an issue, it panics.
func (pd *PostgresDocker) Cleanup() {
	if err := pd.pg.Shutdown(context.Background()); err != nil {
		panic(err)
	}

	if err := pd.container.Release(); err != nil {
		panic(err)
	}
}

func loadFixtures(db *sql.DB, dialect string, files []string) {
	if _, err := os.Stat(CommonFixture); errors.Is(err, nil) { // file exists
		files = append([]string{CommonFixture}, files...)
	}

	if len(files) == 0 {
		return
	}

	fixtures, err := testfixtures.New(
		testfixtures.Database(db),
		testfixtures.Dialect(dialect),
		testfixtures.FilesMultiTables(files...),
	)
	if err != nil {
		panic(err)
	}

	if err = fixtures.Load(); err != nil {
		panic(err)
	}
}

func randomDatabaseName() string {
	letters := []rune("abcdefghijklmnopqrstuvwxyz")

	rnd := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // used for name, not security

	const n = 16
	b := make([]rune, n)

	for i := range b {
		b[i] = letters[rnd.Intn(len(letters))]
	}

	return string(b) + "_test"
}
