//go:build integration

package mysql_test

import (
	"context"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-arrower/productstore/contexts/product"
	"github.com/go-arrower/productstore/mysql"
	"github.com/go-arrower/productstore/secret"
	"github.com/go-arrower/productstore/tests"
)

func TestConnectAndMigrate(t *testing.T) {
	t.Parallel()

	var conf mysql.Config

	container, err := tests.StartContainer(&dockertest.RunOptions{
		Name:       "productstore-mysql-migrate",
		Repository: "mysql",
		Tag:        "8.4",
		Env:        []string{"MYSQL_ROOT_PASSWORD=secret", "MYSQL_DATABASE=dbname_test"},
	}, "3306/tcp", func(port int) error {
		conf = mysql.Config{
			User:     "root",
			Password: secret.New("secret"),
			Database: "dbname_test",
			Host:     "localhost",
			Port:     port,
		}

		handler, err := mysql.Connect(context.Background(), conf)
		if err != nil {
			return err //nolint:wrapcheck
		}

		return handler.Shutdown(context.Background())
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = container.Release() })

	migrations, err := product.Migrations("mysql")
	require.NoError(t, err)

	conf.Migrations = migrations

	t.Run("ensure db migration run", func(t *testing.T) {
		handler, err := mysql.ConnectAndMigrate(context.Background(), conf)
		require.NoError(t, err)

		defer handler.Shutdown(context.Background()) //nolint:errcheck

		var count int
		err = handler.DB.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM product`).Scan(&count)
		assert.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("ensure migration does not fail, if the schema is already up to date", func(t *testing.T) {
		handler, err := mysql.ConnectAndMigrate(context.Background(), conf)
		require.NoError(t, err)

		_ = handler.Shutdown(context.Background())
	})

	t.Run("wrong credentials", func(t *testing.T) {
		wrong := conf
		wrong.Password = secret.New("wrong")

		_, err := mysql.Connect(context.Background(), wrong)
		assert.ErrorIs(t, err, mysql.ErrConnectionFailed)
	})
}
