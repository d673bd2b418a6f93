// Package init wires the product context into a productstore.Container.
package init

import (
	"context"
	"fmt"

	"github.com/go-arrower/productstore"
	"github.com/go-arrower/productstore/contexts/product/internal/application"
	"github.com/go-arrower/productstore/contexts/product/internal/domain"
	"github.com/go-arrower/productstore/contexts/product/internal/interfaces/repository"
	"github.com/go-arrower/productstore/contexts/product/internal/interfaces/web"
)

const (
	contextName = "product"

	// RoutePrefix is where the api of the context is mounted.
	RoutePrefix = "/product-composite"
)

type ProductContext struct {
	repo       domain.Repository
	controller *web.ProductController
}

// NewProductContext stores products in the storage configured in di
// and registers the api on di.WebRouter.
func NewProductContext(di *productstore.Container) (*ProductContext, error) {
	if err := di.EnsureAllDependenciesPresent(); err != nil {
		return nil, fmt.Errorf("could not initialise %s context: %w", contextName, err)
	}

	repo, err := newRepository(di)
	if err != nil {
		return nil, fmt.Errorf("could not initialise %s context: %w", contextName, err)
	}

	pc := &ProductContext{
		repo:       repo,
		controller: web.NewProductController(application.NewProductApplication(di.Instrumentation(), repo)),
	}

	web.MapErrors(di.ErrorHandler)
	pc.controller.RegisterRoutes(di.WebRouter.Group(RoutePrefix))

	if err = web.DescribeAPI(di.OpenAPI, RoutePrefix); err != nil {
		return nil, fmt.Errorf("could not describe %s api: %w", contextName, err)
	}

	return pc, nil
}

func newRepository(di *productstore.Container) (domain.Repository, error) { //nolint:ireturn // the driver decides the implementation
	switch di.Config.Storage.Driver {
	case productstore.MemoryDriver, "":
		return repository.NewProductMemoryRepository(), nil
	case productstore.PostgresDriver:
		if di.Postgres == nil {
			return nil, fmt.Errorf("%w: postgres", productstore.ErrMissingDependency)
		}

		return repository.NewProductPostgresRepository(di.Postgres.PGx)
	case productstore.MySQLDriver:
		if di.MySQL == nil {
			return nil, fmt.Errorf("%w: mysql", productstore.ErrMissingDependency)
		}

		return repository.NewProductSQLRepository(di.MySQL.DB, repository.MySQL)
	case productstore.SQLiteDriver:
		if di.SQLite == nil {
			return nil, fmt.Errorf("%w: sqlite", productstore.ErrMissingDependency)
		}

		return repository.NewProductSQLRepository(di.SQLite.DB, repository.SQLite)
	default:
		return nil, fmt.Errorf("%w: %s", productstore.ErrUnknownDriver, di.Config.Storage.Driver)
	}
}

// Shutdown has nothing to release, the connections are owned by the Container.
func (pc *ProductContext) Shutdown(_ context.Context) error {
	return nil
}
