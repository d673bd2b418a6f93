package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/go-arrower/productstore"
	"github.com/go-arrower/productstore/cmd"
	"github.com/go-arrower/productstore/contexts/product"
	productinit "github.com/go-arrower/productstore/contexts/product/init"
)

func main() {
	if err := cmd.NewProductStoreCLI(productstore.DefaultViper(), newApp).Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

// app owns the Container and all contexts initialised on it.
type app struct {
	*productstore.Container

	product *productinit.ProductContext
}

func (a *app) Shutdown(ctx context.Context) error {
	return errors.Join(a.product.Shutdown(ctx), a.Container.Shutdown(ctx))
}

func newApp(ctx context.Context, conf *productstore.Config) (cmd.App, error) { //nolint:ireturn // the cli only needs to start and stop
	if conf.Storage.Driver != productstore.MemoryDriver && conf.Storage.Driver != "" {
		migrations, err := product.Migrations(string(conf.Storage.Driver))
		if err != nil {
			return nil, fmt.Errorf("could not load migrations: %w", err)
		}

		conf.Postgres.Migrations = migrations
		conf.MySQL.Migrations = migrations
		conf.SQLite.Migrations = migrations
	}

	di, err := productstore.InitialiseDefaultDependencies(ctx, conf)
	if err != nil {
		return nil, err //nolint:wrapcheck // already wrapped
	}

	productContext, err := productinit.NewProductContext(di)
	if err != nil {
		return nil, errors.Join(err, di.Shutdown(ctx))
	}

	return &app{Container: di, product: productContext}, nil
}
