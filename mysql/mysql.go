// Package mysql connects to MySQL and brings the schema up to date.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/go-arrower/productstore/secret"
)

var (
	ErrConnectionFailed = errors.New("connection failed")
	ErrMigrationFailed  = errors.New("migration failed")
)

const defaultMaxConns = 10

// Config holds all values used to configure and connect to a mysql database.
type Config struct {
	// Migrations contains the *.up.sql files, at the root of the fs.
	Migrations fs.FS         `json:"-"        mapstructure:"-"`
	User       string        `json:"user"     mapstructure:"user"`
	Password   secret.Secret `json:"password" mapstructure:"password"`
	Database   string        `json:"database" mapstructure:"database"`
	Host       string        `json:"host"     mapstructure:"host"`
	Port       int           `json:"port"     mapstructure:"port"`
	MaxConns   int           `json:"maxConns" mapstructure:"max_conns"`
}

func (c Config) toDSN() string {
	conf := mysql.NewConfig()
	conf.User = c.User
	conf.Passwd = c.Password.Secret()
	conf.Net = "tcp"
	conf.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	conf.DBName = c.Database
	conf.ParseTime = true
	conf.Loc = time.UTC
	// the migrations contain more than one statement per file
	conf.MultiStatements = true

	return conf.FormatDSN()
}

// Handler holds the connection pool to one database.
type Handler struct {
	DB     *sql.DB
	Config Config
}

// Connect connects to a MySQL database.
func Connect(ctx context.Context, conf Config) (*Handler, error) {
	db, err := sql.Open("mysql", conf.toDSN())
	if err != nil {
		return nil, fmt.Errorf("%w: could not open db: %v", ErrConnectionFailed, err) //nolint:errorlint // prevent err in api
	}

	maxConns := conf.MaxConns
	if maxConns == 0 {
		maxConns = defaultMaxConns
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("%w: could not ping db: %v", ErrConnectionFailed, err) //nolint:errorlint // prevent err in api
	}

	return &Handler{DB: db, Config: conf}, nil
}

// ConnectAndMigrate connects to a MySQL database and
// runs all migrations to ensure that the schema is on the latest version.
func ConnectAndMigrate(ctx context.Context, conf Config) (*Handler, error) {
	if conf.Migrations == nil {
		return nil, fmt.Errorf("%w: no migration files given", ErrMigrationFailed)
	}

	handler, err := Connect(ctx, conf)
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

	driver, err := migratemysql.WithInstance(db, &migratemysql.Config{}) //nolint:exhaustruct // use default config
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

// Shutdown closes all connections to MySQL.
func (h *Handler) Shutdown(_ context.Context) error {
	if err := h.DB.Close(); err != nil {
		return fmt.Errorf("could not close db: %w", err)
	}

	return nil
}
