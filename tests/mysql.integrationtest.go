//go:build integration

package tests

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"sync"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/khaiql/dbcleaner"
	"github.com/khaiql/dbcleaner/engine"
	"github.com/ory/dockertest/v3"

	"github.com/go-arrower/productstore/contexts/product"
	"github.com/go-arrower/productstore/mysql"
	"github.com/go-arrower/productstore/secret"
)

//nolint:gochecknoglobals // the variables are used on purpose for a singleton pattern.
var (
	muMySQL        = &sync.Mutex{}
	singletonMySQL *MySQLDocker
)

// MySQLDocker is a mysql server running in docker.
type MySQLDocker struct {
	db        *mysql.Handler
	container *Container
}

// GetMySQLDocker returns a fully connected and migrated mysql.
// Subsequent calls return the same instance to prevent multiple docker containers to spin up.
// In case of an issue, it panics.
func GetMySQLDocker() *MySQLDocker {
	muMySQL.Lock()
	defer muMySQL.Unlock()

	if singletonMySQL != nil {
		return singletonMySQL
	}

	var (
		handler *mysql.Handler
		conf    = defaultMySQLConf()
	)

	options := &dockertest.RunOptions{ //nolint:exhaustruct // only set required configuration
		Name:       fmt.Sprintf("productstore-testing-mysql-%d", rand.Intn(1000)), //nolint:gosec,mnd // no need for secure number, just prevent collisions
		Repository: "mysql",
		Tag:        "8.4",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=" + conf.Password.Secret(),
			"MYSQL_DATABASE=" + conf.Database,
		},
	}

	container, err := StartContainer(options, "3306/tcp", func(port int) error {
		conf.Port = port

		h, err := mysql.ConnectAndMigrate(context.Background(), conf)
		if err != nil {
			return err //nolint:wrapcheck
		}

		handler = h

		return nil
	})
	if err != nil {
		panic(err)
	}

	singletonMySQL = &MySQLDocker{db: handler, container: container}

	return singletonMySQL
}

func defaultMySQLConf() mysql.Config {
	migrations, err := product.Migrations("mysql")
	if err != nil {
		panic(err)
	}

	return mysql.Config{ //nolint:exhaustruct // port is known after the container started
		User:       "root", // creates a database per test
		Password:   secret.New("secret"),
		Database:   "productstore_test",
		Host:       "localhost",
		MaxConns:   10, //nolint:mnd
		Migrations: migrations,
	}
}

// NewTestDatabase creates a new database, connects to it, and applies all migrations.
// Afterwards, it loads all fixtures from files, see PostgresDocker.NewTestDatabase.
// In case of an issue, it panics.
func (md *MySQLDocker) NewTestDatabase(files ...string) *mysql.Handler {
	newDB := randomDatabaseName()

	_, err := md.db.DB.ExecContext(context.Background(), fmt.Sprintf("CREATE DATABASE %s;", newDB))
	if err != nil {
		panic(err)
	}

	conf := md.db.Config
	conf.Database = newDB
	conf.MaxConns = 2

	handler, err := mysql.ConnectAndMigrate(context.Background(), conf)
	if err != nil {
		panic(err)
	}

	loadFixtures(handler.DB, "mysql", files)

	return handler
}

// PrepareDatabase truncates the tables of the shared database and loads the fixtures from files.
// In case of an issue, it panics.
func (md *MySQLDocker) PrepareDatabase(files ...string) *mysql.Handler {
	c := md.db.Config

	dsn := mysqldriver.NewConfig()
	dsn.User = c.User
	dsn.Passwd = c.Password.Secret()
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	dsn.DBName = c.Database

	cleaner := dbcleaner.New()
	cleaner.SetEngine(engine.NewMySQLEngine(dsn.FormatDSN()))
	cleaner.Clean("product")
	_ = cleaner.Close()

	loadFixtures(md.db.DB, "mysql", files)

	return md.db
}

// Cleanup closes the connections and releases the docker container.
// In case of an issue, it panics.
func (md *MySQLDocker) Cleanup() {
	if err := md.db.Shutdown(context.Background()); err != nil {
		panic(err)
	}

	if err := md.container.Release(); err != nil {
		panic(err)
	}
}
