package openapi_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/go-arrower/productstore/openapi"
)

func newDocument() *openapi.Document {
	return openapi.New(openapi.Info{
		Title:   "Products",
		Version: "1.0.0",
		License: &openapi.License{Name: "MIT"},
	}, &openapi.ExternalDocs{URL: "https://example.com/docs"})
}

var okResponse = map[string]openapi.Response{"200": {Description: "OK"}} //nolint:gochecknoglobals // testdata

func TestDocument_AddOperation(t *testing.T) {
	t.Parallel()

	t.Run("convert path parameters", func(t *testing.T) {
		t.Parallel()

		doc := newDocument()
		err := doc.AddOperation(http.MethodGet, "/products/:productId", openapi.Operation{Responses: okResponse})
		assert.NoError(t, err)

		b, err := doc.YAML()
		require.NoError(t, err)
		assert.Contains(t, string(b), "/products/{productId}:")
		assert.Contains(t, string(b), "get:")
	})

	t.Run("operation without responses", func(t *testing.T) {
		t.Parallel()

		err := newDocument().AddOperation(http.MethodGet, "/products", openapi.Operation{})
		assert.ErrorIs(t, err, openapi.ErrInvalidOperation)
	})

	t.Run("duplicate operation", func(t *testing.T) {
		t.Parallel()

		doc := newDocument()
		assert.NoError(t, doc.AddOperation(http.MethodGet, "/products", openapi.Operation{Responses: okResponse}))
		assert.NoError(t, doc.AddOperation(http.MethodPost, "/products", openapi.Operation{Responses: okResponse}))

		err := doc.AddOperation(http.MethodGet, "/products", openapi.Operation{Responses: okResponse})
		assert.ErrorIs(t, err, openapi.ErrInvalidOperation)
	})
}

func TestDocument_YAML(t *testing.T) {
	t.Parallel()

	doc := newDocument()
	doc.AddSchema("Product", openapi.Schema{
		Type:       "object",
		Properties: map[string]openapi.Schema{"productId": {Type: "integer"}},
	})
	_ = doc.AddOperation(http.MethodGet, "/products", openapi.Operation{
		Responses: map[string]openapi.Response{
			"200": {Description: "OK", Content: openapi.JSON(openapi.Schema{Type: "array", Items: ptr(openapi.Ref("Product"))})},
		},
	})

	b, err := doc.YAML()
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal(b, &parsed))

	assert.Equal(t, openapi.Version, parsed["openapi"])
	assert.Equal(t, "Products", parsed["info"].(map[string]any)["title"])
	assert.Contains(t, parsed["components"].(map[string]any)["schemas"], "Product")
	assert.Contains(t, string(b), "#/components/schemas/Product")
}

func TestDocument_Handler(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
	rec := httptest.NewRecorder()

	c := echo.New().NewContext(req, rec)

	if assert.NoError(t, newDocument().Handler()(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/yaml", rec.Header().Get(echo.HeaderContentType))
		assert.Contains(t, rec.Body.String(), "title: Products")
	}
}

func ptr[T any](v T) *T {
	return &v
}
