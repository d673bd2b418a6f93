package web

import (
	"errors"
	"net/http"

	"github.com/go-arrower/productstore/openapi"
)

// DescribeAPI adds the routes of RegisterRoutes, mounted at prefix, to doc.
func DescribeAPI(doc *openapi.Document, prefix string) error {
	doc.AddSchema("Product", openapi.Schema{
		Type:     "object",
		Required: []string{"productId", "name", "weight"},
		Properties: map[string]openapi.Schema{
			"productId": {Type: "integer", Description: "Business identifier of the product", Example: 1},
			"name":      {Type: "string", Example: "name"},
			"weight":    {Type: "integer", Example: 1},
		},
	})
	doc.AddSchema("UpdateProduct", openapi.Schema{
		Type:     "object",
		Required: []string{"name", "weight"},
		Properties: map[string]openapi.Schema{
			"name":   {Type: "string"},
			"weight": {Type: "integer"},
		},
	})
	doc.AddSchema("ErrorInfo", openapi.Schema{
		Type: "object",
		Properties: map[string]openapi.Schema{
			"timestamp": {Type: "string", Format: "date-time"},
			"path":      {Type: "string"},
			"status":    {Type: "integer"},
			"error":     {Type: "string"},
			"message":   {Type: "string"},
		},
	})

	var (
		productIDParameter = openapi.Parameter{
			Name:        paramProductID,
			In:          "path",
			Description: "Id of the product",
			Required:    true,
			Schema:      openapi.Schema{Type: "integer"},
		}
		etag = map[string]openapi.Header{
			headerETag: {Description: "Record and version of the product, e.g. \"12-3\"", Schema: openapi.Schema{Type: "string"}},
		}
		productRef = openapi.Ref("Product")
		product    = openapi.JSON(productRef)
		errorInfo  = openapi.JSON(openapi.Ref("ErrorInfo"))
	)

	item := prefix + "/:" + paramProductID

	return errors.Join(
		doc.AddOperation(http.MethodGet, prefix, openapi.Operation{
			Tags:        []string{"product"},
			Summary:     "Returns all products, ordered by productId",
			OperationID: "listProducts",
			Responses: map[string]openapi.Response{
				"200": {Description: "OK", Content: openapi.JSON(openapi.Schema{Type: "array", Items: &productRef})},
			},
		}),
		doc.AddOperation(http.MethodPost, prefix, openapi.Operation{
			Tags:        []string{"product"},
			Summary:     "Creates a product",
			OperationID: "createProduct",
			RequestBody: &openapi.RequestBody{Required: true, Content: product},
			Responses: map[string]openapi.Response{
				"201": {Description: "Created", Headers: etag, Content: product},
				"409": {Description: "A product with the productId exists already", Content: errorInfo},
				"422": {Description: "Invalid request", Content: errorInfo},
			},
		}),
		doc.AddOperation(http.MethodGet, item, openapi.Operation{
			Tags:        []string{"product"},
			Summary:     "Returns a composite view of the specified product id",
			OperationID: "getProduct",
			Parameters:  []openapi.Parameter{productIDParameter},
			Responses: map[string]openapi.Response{
				"200": {Description: "OK", Headers: etag, Content: product},
				"404": {Description: "Not found, the specified id does not exist", Content: errorInfo},
				"422": {Description: "Invalid input parameter, e.g. a negative productId", Content: errorInfo},
			},
		}),
		doc.AddOperation(http.MethodPut, item, openapi.Operation{
			Tags:        []string{"product"},
			Summary:     "Updates name and weight of a product",
			Description: "With an If-Match header the update is rejected, if the product changed or got replaced in between.",
			OperationID: "updateProduct",
			Parameters: []openapi.Parameter{productIDParameter, {
				Name:        headerIfMatch,
				In:          "header",
				Description: "Expected record and version, as returned in the ETag",
				Schema:      openapi.Schema{Type: "string"},
			}},
			RequestBody: &openapi.RequestBody{Required: true, Content: openapi.JSON(openapi.Ref("UpdateProduct"))},
			Responses: map[string]openapi.Response{
				"200": {Description: "OK", Headers: etag, Content: product},
				"404": {Description: "Not found, the specified id does not exist", Content: errorInfo},
				"409": {Description: "The product was modified concurrently", Content: errorInfo},
				"422": {Description: "Invalid request", Content: errorInfo},
			},
		}),
		doc.AddOperation(http.MethodDelete, item, openapi.Operation{
			Tags:        []string{"product"},
			Summary:     "Deletes a product, deleting an absent product succeeds",
			OperationID: "deleteProduct",
			Parameters:  []openapi.Parameter{productIDParameter},
			Responses: map[string]openapi.Response{
				"204": {Description: "No Content"},
				"422": {Description: "Invalid input parameter", Content: errorInfo},
			},
		}),
	)
}
