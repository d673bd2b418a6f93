// Package postgres connects to PostgreSQL and brings the schema up to date.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-arrower/productstore/secret"
)

var (
	ErrConnectionFailed = errors.New("connection failed")
	ErrMigrationFailed  = errors.New("migration failed")
)

const defaultMaxConns = 10

// Config holds all values used to configure and connect to a postgres database.
type Config struct {
	// Migrations contains the *.up.sql files, at the root of the fs.
	Migrations fs.FS         `json:"-"        mapstructure:"-"`
	User       string        `json:"user"     mapstructure:"user"`
	Password   secret.Secret `json:"password" mapstructure:"password"`
	Database   string        `json:"database" mapstructure:"database"`
	SSLMode    string        `json:"sslMode"  mapstructure:"ssl_mode"`
	Host       string        `json:"host"     mapstructure:"host"`
	Port       int           `json:"port"     mapstructure:"port"`
	MaxConns   int           `json:"maxConns" mapstructure:"max_conns"`
}

func (c Config) toURL() string {
	if c.MaxConns == 0 { // prevent error: pool_max_conns too small
		c.MaxConns = defaultMaxConns
	}

	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password.Secret()),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   c.Database,
		RawQuery: url.Values{
			"sslmode":        []string{c.SSLMode},
			"pool_max_conns": []string{strconv.Itoa(c.MaxConns)},
		}.Encode(),
	}

	return u.String()
}

// Handler holds the connections to one database.
type Handler struct {
	PGx *pgxpool.Pool
	// DB is a database/sql view on the same database, for migrations & test fixtures.
	DB     *sql.DB
	Config Config
}

// Connect connects to a PostgreSQL database.
// All queries are traced with tracerProvider.
func Connect(ctx context.Context, conf Config, tracerProvider trace.TracerProvider) (*Handler, error) {
	config, err := pgxpool.ParseConfig(conf.toURL())
	if err != nil {
		return nil, fmt.Errorf("%w: could not parse config: %v", ErrConnectionFailed, err) //nolint:errorlint // prevent err in api
	}

	config.ConnConfig.RuntimeParams["application_name"] = "productstore"
	config.ConnConfig.Tracer = &pgxTraceAdapter{
		tracer: tracerProvider.Tracer("productstore.pgx"),
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%w: could not connect: %v", ErrConnectionFailed, err) //nolint:errorlint // prevent err in api
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("%w: could not ping db: %v", ErrConnectionFailed, err) //nolint:errorlint // prevent err in api
	}

	return &Handler{
		PGx:    pool,
		DB:     stdlib.OpenDBFromPool(pool),
		Config: conf,
	}, nil
}

// ConnectAndMigrate connects to a PostgreSQL database and
// runs all migrations to ensure that the schema is on the latest version.
func ConnectAndMigrate(ctx context.Context, conf Config, tracerProvider trace.TracerProvider) (*Handler, error) {
	if conf.Migrations == nil {
		return nil, fmt.Errorf("%w: no migration files given", ErrMigrationFailed)
	}

	handler, err := Connect(ctx, conf, tracerProvider)
	if err != nil {
		return nil, err
	}

	if err = migrateUp(handler.DB, conf.Database, conf.Migrations); err != nil {
		_ = handler.Shutdown(ctx)

		return nil, err
	}

	return handler, nil
}

func migrateUp(db *sql.DB, dbName string, migrations fs.FS) error {
	source, err := iofs.New(migrations, ".")
	if err != nil {
		return fmt.Errorf("%w: could not read migration files: %v", ErrMigrationFailed, err) //nolint:errorlint // prevent err in api
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{}) //nolint:exhaustruct // use default config
	if err != nil {
		return fmt.Errorf("%w: could not get database driver: %v", ErrMigrationFailed, err) //nolint:errorlint // prevent err in api
	}

	m, err := migrate.NewWithInstance("iofs", source, dbName, driver)
	if err != nil {
		return fmt.Errorf("%w: could not create migration instance: %v", ErrMigrationFailed, err) //nolint:errorlint // prevent err in api
	}

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w: could not migrate up: %v", ErrMigrationFailed, err) //nolint:errorlint // prevent err in api
	}

	return nil
}

// Shutdown closes all connections to PostgreSQL.
func (h *Handler) Shutdown(_ context.Context) error {
	err := h.DB.Close()

	h.PGx.Close()

	if err != nil {
		return fmt.Errorf("could not close db: %w", err)
	}

	return nil
}
