// Package sqlite opens an embedded SQLite database and brings the schema up to date.
//
// It uses the pure Go driver modernc.org/sqlite, so no cgo is required.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite" // register the driver
)

var (
	ErrConnectionFailed = errors.New("connection failed")
	ErrMigrationFailed  = errors.New("migration failed")
)

const defaultBusyTimeoutMS = 5000

// Config holds all values used to open a sqlite database.
type Config struct {
	// Migrations contains the *.up.sql files, at the root of the fs.
	Migrations fs.FS  `json:"-"    mapstructure:"-"`
	Path       string `json:"path" mapstructure:"path"`
}

func (c Config) toDSN() string {
	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", defaultBusyTimeoutMS))
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "foreign_keys(1)")

	return "file:" + c.Path + "?" + params.Encode()
}

// Handler holds the connection to one database file.
type Handler struct {
	DB     *sql.DB
	Config Config
}

// Open opens or creates the database at conf.Path.
func Open(ctx context.Context, conf Config) (*Handler, error) {
	if conf.Path == "" {
		return nil, fmt.Errorf("%w: no path given", ErrConnectionFailed)
	}

	db, err := sql.Open("sqlite", conf.toDSN())
	if err != nil {
		return nil, fmt.Errorf("%w: could not open db: %v", ErrConnectionFailed, err) //nolint:errorlint // prevent err in api
	}

	// sqlite allows one writer at a time, a single connection serialises all writes without SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("%w: could not ping db: %v", ErrConnectionFailed, err) //nolint:errorlint // prevent err in api
	}

	return &Handler{DB: db, Config: conf}, nil
}

// OpenAndMigrate opens the database and
// runs all migrations to ensure that the schema is on the latest version.
func OpenAndMigrate(ctx context.Context, conf Config) (*Handler, error) {
	if conf.Migrations == nil {
		return nil, fmt.Errorf("%w: no migration files given", ErrMigrationFailed)
	}

	handler, err := Open(ctx, conf)
	if err != nil {
		return nil, err
	}

	if err = migrateUp(handler.DB, conf.Migrations); err != nil {
		_ = handler.Shutdown(ctx)

		return nil, err
	}

	return handler, nil
}

func migrateUp(db *sql.DB, migrations fs.FS) error {
	source, err := iofs.New(migrations, ".")
	if err != nil {
		return fmt.Errorf("%w: could not read migration files: %v", ErrMigrationFailed, err) //nolint:errorlint // prevent err in api
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{}) //nolint:exhaustruct // use default config
	if err != nil {
		return fmt.Errorf("%w: could not get database driver: %v", ErrMigrationFailed, err) //nolint:errorlint // prevent err in api
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("%w: could not create migration instance: %v", ErrMigrationFailed, err) //nolint:errorlint // prevent err in api
	}

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w: could not migrate up: %v", ErrMigrationFailed, err) //nolint:errorlint // prevent err in api
	}

	return nil
}

// Shutdown closes the database.
func (h *Handler) Shutdown(_ context.Context) error {
	if err := h.DB.Close(); err != nil {
		return fmt.Errorf("could not close db: %w", err)
	}

	return nil
}
