package web_test

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/go-arrower/productstore/alog"
	"github.com/go-arrower/productstore/app"
	"github.com/go-arrower/productstore/contexts/product/internal/application"
	"github.com/go-arrower/productstore/contexts/product/internal/domain"
	"github.com/go-arrower/productstore/contexts/product/internal/interfaces/web"
	"github.com/go-arrower/productstore/httperr"
)

var product7 = domain.Product{ID: 1, Version: 3, ProductID: 7, Name: "n", Weight: 1}

// newTestRouter is a helper for unit tests, by returning a web router
// with the controller registered under /product-composite.
func newTestRouter(products application.ProductApplication) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = web.MapErrors(httperr.New(alog.NewNoop())).HandleError

	web.NewProductController(products).RegisterRoutes(e.Group("/product-composite"))

	return e
}

// failingApplication returns err for every use case.
func failingApplication(err error) application.ProductApplication {
	return application.ProductApplication{
		GetProduct: app.TestQueryHandler(func(context.Context, application.GetProductQuery) (domain.Product, error) {
			return domain.Product{}, err
		}),
		ListProducts: app.TestQueryHandler(func(context.Context, application.ListProductsQuery) ([]domain.Product, error) {
			return nil, err
		}),
		CreateProduct: app.TestRequestHandler(func(context.Context, application.CreateProductRequest) (domain.Product, error) {
			return domain.Product{}, err
		}),
		UpdateProduct: app.TestRequestHandler(func(context.Context, application.UpdateProductRequest) (domain.Product, error) {
			return domain.Product{}, err
		}),
		DeleteProduct: app.TestCommandHandler(func(context.Context, application.DeleteProductCommand) error {
			return err
		}),
	}
}

func jsonBody(body string) io.Reader {
	return strings.NewReader(body)
}

func decodeError(t *testing.T, body string) httperr.ErrorInfo {
	t.Helper()

	var info httperr.ErrorInfo
	require.NoError(t, json.Unmarshal([]byte(body), &info))

	return info
}
