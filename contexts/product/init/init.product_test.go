package init_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-arrower/productstore"
	"github.com/go-arrower/productstore/contexts/product"
	productinit "github.com/go-arrower/productstore/contexts/product/init"
)

func newContainer(t *testing.T, driver productstore.Driver) *productstore.Container {
	t.Helper()

	conf := &productstore.Config{
		ApplicationName: "productstore",
		Environment:     productstore.TestEnv,
		Storage:         productstore.Storage{Driver: driver},
		API:             productstore.API{Title: "products", Version: "1"},
	}

	if driver == productstore.SQLiteDriver {
		migrations, err := product.Migrations("sqlite")
		require.NoError(t, err)

		conf.SQLite.Path = filepath.Join(t.TempDir(), "products.db")
		conf.SQLite.Migrations = migrations
	}

	di, err := productstore.InitialiseDefaultDependencies(context.Background(), conf)
	require.NoError(t, err)

	t.Cleanup(func() { _ = di.Shutdown(context.Background()) })

	return di
}

func do(router *echo.Echo, method string, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func put(router *echo.Echo, path string, body string, ifMatch string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("If-Match", ifMatch)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func TestNewProductContext(t *testing.T) {
	t.Parallel()

	for _, driver := range []productstore.Driver{productstore.MemoryDriver, productstore.SQLiteDriver} {
		t.Run(string(driver), func(t *testing.T) {
			t.Parallel()

			di := newContainer(t, driver)

			_, err := productinit.NewProductContext(di)
			require.NoError(t, err)

			rec := do(di.WebRouter, http.MethodGet, "/product-composite/1", "")
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Contains(t, rec.Body.String(), `"message":"No product found for productId: 1"`)

			rec = do(di.WebRouter, http.MethodPost, "/product-composite", `{"productId":1,"name":"n","weight":1}`)
			assert.Equal(t, http.StatusCreated, rec.Code)
			etag := rec.Header().Get("ETag")
			assert.Regexp(t, `^"\d+-0"$`, etag)

			rec = do(di.WebRouter, http.MethodPost, "/product-composite", `{"productId":1,"name":"n","weight":1}`)
			assert.Equal(t, http.StatusConflict, rec.Code)

			rec = do(di.WebRouter, http.MethodGet, "/product-composite/-1", "")
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), `"message":"Invalid productId: -1"`)

			rec = do(di.WebRouter, http.MethodPost, "/product-composite", `{"productId":2,"name":"","weight":1}`)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), `"message":"Invalid name: "`)

			rec = do(di.WebRouter, http.MethodGet, "/product-composite/2147483648", "")
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), `"message":"Invalid productId: 2147483648"`)

			rec = do(di.WebRouter, http.MethodPost, "/product-composite", `{"productId":2147483648,"name":"n","weight":1}`)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), `"message":"Invalid productId: 2147483648"`)

			rec = put(di.WebRouter, "/product-composite/1", `{"name":"n2","weight":2}`, etag)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, strings.Replace(etag, `-0"`, `-1"`, 1), rec.Header().Get("ETag"))

			// same version again is stale
			rec = put(di.WebRouter, "/product-composite/1", `{"name":"n2","weight":2}`, etag)
			assert.Equal(t, http.StatusConflict, rec.Code)

			rec = do(di.WebRouter, http.MethodGet, "/product-composite/1", "")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"productId":1,"name":"n2","weight":2}`, rec.Body.String())

			rec = do(di.WebRouter, http.MethodDelete, "/product-composite/1", "")
			assert.Equal(t, http.StatusNoContent, rec.Code)

			rec = do(di.WebRouter, http.MethodGet, "/product-composite", "")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `[]`, rec.Body.String())

			rec = do(di.WebRouter, http.MethodGet, "/openapi.yaml", "")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), "/product-composite/{productId}:")
		})
	}

	for _, driver := range []productstore.Driver{productstore.MemoryDriver, productstore.SQLiteDriver} {
		t.Run("stale ETag of a re-created product "+string(driver), func(t *testing.T) {
			t.Parallel()

			di := newContainer(t, driver)

			_, err := productinit.NewProductContext(di)
			require.NoError(t, err)

			rec := do(di.WebRouter, http.MethodPost, "/product-composite", `{"productId":7,"name":"mine","weight":1}`)
			require.Equal(t, http.StatusCreated, rec.Code)
			etag := rec.Header().Get("ETag")

			rec = do(di.WebRouter, http.MethodDelete, "/product-composite/7", "")
			require.Equal(t, http.StatusNoContent, rec.Code)

			rec = do(di.WebRouter, http.MethodPost, "/product-composite", `{"productId":7,"name":"someone-elses","weight":9}`)
			require.Equal(t, http.StatusCreated, rec.Code)
			assert.NotEqual(t, etag, rec.Header().Get("ETag"))

			rec = put(di.WebRouter, "/product-composite/7", `{"name":"overwritten","weight":2}`, etag)
			assert.Equal(t, http.StatusConflict, rec.Code)

			rec = do(di.WebRouter, http.MethodGet, "/product-composite/7", "")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"productId":7,"name":"someone-elses","weight":9}`, rec.Body.String())
		})
	}

	t.Run("missing dependencies", func(t *testing.T) {
		t.Parallel()

		_, err := productinit.NewProductContext(&productstore.Container{})
		assert.ErrorIs(t, err, productstore.ErrMissingDependency)
	})

	t.Run("missing connection", func(t *testing.T) {
		t.Parallel()

		di := newContainer(t, productstore.MemoryDriver)
		di.Config.Storage.Driver = productstore.PostgresDriver

		_, err := productinit.NewProductContext(di)
		assert.ErrorIs(t, err, productstore.ErrMissingDependency)
	})
}
