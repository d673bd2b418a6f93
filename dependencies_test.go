package productstore_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-arrower/productstore"
)

func testConfig() *productstore.Config {
	return &productstore.Config{
		ApplicationName: "productstore",
		Environment:     productstore.TestEnv,
		Storage:         productstore.Storage{Driver: productstore.MemoryDriver},
		API:             productstore.API{Title: "products", Version: "1", License: "MIT"},
	}
}

func TestInitialiseDefaultDependencies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		t.Parallel()

		di, err := productstore.InitialiseDefaultDependencies(ctx, testConfig())
		require.NoError(t, err)

		assert.NoError(t, di.EnsureAllDependenciesPresent())
		assert.Nil(t, di.Postgres)
		assert.Nil(t, di.MySQL)
		assert.Nil(t, di.SQLite)

		assert.NoError(t, di.Shutdown(ctx))
	})

	t.Run("sqlite", func(t *testing.T) {
		t.Parallel()

		conf := testConfig()
		conf.Storage.Driver = productstore.SQLiteDriver
		conf.SQLite.Path = filepath.Join(t.TempDir(), "products.db")
		conf.SQLite.Migrations = fstest.MapFS{
			"000001_init.up.sql": {Data: []byte(`CREATE TABLE t (id INTEGER PRIMARY KEY);`)},
		}

		di, err := productstore.InitialiseDefaultDependencies(ctx, conf)
		require.NoError(t, err)
		assert.NotNil(t, di.SQLite)

		assert.NoError(t, di.Shutdown(ctx))
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Parallel()

		conf := testConfig()
		conf.Storage.Driver = "oracle"

		_, err := productstore.InitialiseDefaultDependencies(ctx, conf)
		assert.ErrorIs(t, err, productstore.ErrUnknownDriver)
	})

	t.Run("missing config", func(t *testing.T) {
		t.Parallel()

		_, err := productstore.InitialiseDefaultDependencies(ctx, nil)
		assert.ErrorIs(t, err, productstore.ErrMissingDependency)
	})

	t.Run("no trace export without otel endpoint", func(t *testing.T) {
		t.Parallel()

		development := testConfig()
		development.Environment = productstore.DevelopmentEnv

		for _, conf := range []*productstore.Config{testConfig(), development} {
			di, err := productstore.InitialiseDefaultDependencies(ctx, conf)
			require.NoError(t, err)

			_, span := di.TraceProvider.Tracer("test").Start(ctx, "span")
			assert.False(t, span.IsRecording())
			span.End()

			assert.NoError(t, di.Shutdown(ctx))
		}
	})

	t.Run("independent containers", func(t *testing.T) {
		t.Parallel()

		// no global state, e.g. the prometheus registry, is shared
		first, err := productstore.InitialiseDefaultDependencies(ctx, testConfig())
		require.NoError(t, err)

		second, err := productstore.InitialiseDefaultDependencies(ctx, testConfig())
		require.NoError(t, err)

		assert.NotSame(t, first.Registry, second.Registry)

		assert.NoError(t, first.Shutdown(ctx))
		assert.NoError(t, second.Shutdown(ctx))
	})
}

func TestContainer_WebRouter(t *testing.T) {
	t.Parallel()

	di, err := productstore.InitialiseDefaultDependencies(context.Background(), testConfig())
	require.NoError(t, err)

	t.Cleanup(func() { _ = di.Shutdown(context.Background()) })

	t.Run("unknown route uses the error envelope", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/not-existing", nil)
		rec := httptest.NewRecorder()
		di.WebRouter.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

		var info map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
		assert.Equal(t, "/not-existing", info["path"])
		assert.Equal(t, "Not Found", info["error"])
		assert.EqualValues(t, http.StatusNotFound, info["status"])
		assert.Contains(t, info, "timestamp")
		assert.Contains(t, info, "message")
	})

	t.Run("openapi document", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
		rec := httptest.NewRecorder()
		di.WebRouter.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "title: products")
		assert.Contains(t, rec.Body.String(), "name: MIT")
	})
}

func TestStatusHandler(t *testing.T) {
	t.Parallel()

	di, err := productstore.InitialiseDefaultDependencies(context.Background(), testConfig())
	require.NoError(t, err)

	t.Cleanup(func() { _ = di.Shutdown(context.Background()) })

	handler := productstore.StatusHandler(di)

	t.Run("status", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/status", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"online"`)
		assert.Contains(t, rec.Body.String(), `"driver":"memory"`)
	})

	t.Run("metrics", func(t *testing.T) {
		t.Parallel()

		// produce a request metric first
		di.WebRouter.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))

		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "go_goroutines")
		assert.Contains(t, rec.Body.String(), "productstore_requests_total")
	})
}
