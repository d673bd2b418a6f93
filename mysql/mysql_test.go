package mysql

import (
	"context"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"

	"github.com/go-arrower/productstore/secret"
)

func TestConfig_toDSN(t *testing.T) {
	t.Parallel()

	dsn := Config{
		User:     "store",
		Password: secret.New("secret"),
		Database: "products",
		Host:     "localhost",
		Port:     3306,
	}.toDSN()

	parsed, err := mysql.ParseDSN(dsn)
	assert.NoError(t, err)

	assert.Equal(t, "store", parsed.User)
	assert.Equal(t, "secret", parsed.Passwd)
	assert.Equal(t, "localhost:3306", parsed.Addr)
	assert.Equal(t, "products", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.True(t, parsed.MultiStatements)
}

func TestConnectAndMigrate_NoMigrations(t *testing.T) {
	t.Parallel()

	_, err := ConnectAndMigrate(context.Background(), Config{})
	assert.ErrorIs(t, err, ErrMigrationFailed)
}
