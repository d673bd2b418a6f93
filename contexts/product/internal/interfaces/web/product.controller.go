// Package web exposes the product use cases as a JSON api.
//
// Handlers only return errors, the translation into a response is done
// by the HTTPErrorHandler of the router.
package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/go-arrower/productstore/contexts/product/internal/application"
	"github.com/go-arrower/productstore/contexts/product/internal/domain"
)

const (
	paramProductID = "productId"

	headerETag    = "ETag"
	headerIfMatch = "If-Match"
)

func NewProductController(app application.ProductApplication) *ProductController {
	return &ProductController{app: app}
}

// ProductController maps the product use cases to http.
type ProductController struct {
	app application.ProductApplication
}

// Product is the outward facing shape of a domain.Product,
// the surrogate id and the version are internal to the store.
// Both are sent as ETag instead.
type Product struct {
	ProductID int    `json:"productId"`
	Name      string `json:"name"`
	Weight    int    `json:"weight"`
}

func productFrom(p domain.Product) Product {
	return Product{
		ProductID: int(p.ProductID),
		Name:      p.Name,
		Weight:    p.Weight,
	}
}

// RegisterRoutes adds all routes of the controller to routes.
func (pc *ProductController) RegisterRoutes(routes *echo.Group) {
	routes.GET("", pc.Index())
	routes.POST("", pc.Store())
	routes.GET("/:"+paramProductID, pc.Show())
	routes.PUT("/:"+paramProductID, pc.Update())
	routes.DELETE("/:"+paramProductID, pc.Delete())
}

func (pc *ProductController) Index() echo.HandlerFunc {
	return func(c echo.Context) error {
		products, err := pc.app.ListProducts.H(c.Request().Context(), application.ListProductsQuery{})
		if err != nil {
			return err //nolint:wrapcheck // translated by the error handler
		}

		res := make([]Product, 0, len(products))
		for _, p := range products {
			res = append(res, productFrom(p))
		}

		return c.JSON(http.StatusOK, res)
	}
}

func (pc *ProductController) Show() echo.HandlerFunc {
	return func(c echo.Context) error {
		productID, err := productIDParam(c)
		if err != nil {
			return err
		}

		product, err := pc.app.GetProduct.H(c.Request().Context(), application.GetProductQuery{ProductID: productID})
		if err != nil {
			return err //nolint:wrapcheck // translated by the error handler
		}

		setETag(c, product)

		return c.JSON(http.StatusOK, productFrom(product))
	}
}

func (pc *ProductController) Store() echo.HandlerFunc {
	return func(c echo.Context) error {
		var body Product
		if err := (&echo.DefaultBinder{}).BindBody(c, &body); err != nil {
			return malformedBody(err)
		}

		product, err := pc.app.CreateProduct.H(c.Request().Context(), application.CreateProductRequest{
			ProductID: domain.ProductID(body.ProductID),
			Name:      body.Name,
			Weight:    body.Weight,
		})
		if err != nil {
			return err //nolint:wrapcheck // translated by the error handler
		}

		setETag(c, product)
		c.Response().Header().Set(echo.HeaderLocation, fmt.Sprintf("%s/%d", strings.TrimSuffix(c.Request().URL.Path, "/"), product.ProductID))

		return c.JSON(http.StatusCreated, productFrom(product))
	}
}

// Update replaces name and weight of a product.
// With an If-Match header the update only succeeds if the product is still the same record at that version.
func (pc *ProductController) Update() echo.HandlerFunc {
	type updateBody struct {
		Name   string `json:"name"`
		Weight int    `json:"weight"`
	}

	return func(c echo.Context) error {
		productID, err := productIDParam(c)
		if err != nil {
			return err
		}

		var body updateBody
		if err = (&echo.DefaultBinder{}).BindBody(c, &body); err != nil {
			return malformedBody(err)
		}

		expectedID, expectedVersion, err := ifMatch(c)
		if err != nil {
			return err
		}

		product, err := pc.app.UpdateProduct.H(c.Request().Context(), application.UpdateProductRequest{
			ExpectedID:      expectedID,
			ExpectedVersion: expectedVersion,
			ProductID:       productID,
			Name:            body.Name,
			Weight:          body.Weight,
		})
		if err != nil {
			return err //nolint:wrapcheck // translated by the error handler
		}

		setETag(c, product)

		return c.JSON(http.StatusOK, productFrom(product))
	}
}

func (pc *ProductController) Delete() echo.HandlerFunc {
	return func(c echo.Context) error {
		productID, err := productIDParam(c)
		if err != nil {
			return err
		}

		if err = pc.app.DeleteProduct.H(c.Request().Context(), application.DeleteProductCommand{ProductID: productID}); err != nil {
			return err //nolint:wrapcheck // translated by the error handler
		}

		return c.NoContent(http.StatusNoContent)
	}
}

func productIDParam(c echo.Context) (domain.ProductID, error) {
	raw := c.Param(paramProductID)

	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, domain.MalformedProductID(raw)
	}

	return domain.ProductID(id), nil
}

// setETag identifies the record and its version, as a product deleted and created again
// starts over with the same versions.
func setETag(c echo.Context, product domain.Product) {
	c.Response().Header().Set(headerETag, strconv.Quote(fmt.Sprintf("%d-%d", product.ID, product.Version)))
}

// ifMatch returns the record id and version of the If-Match header or nil, if the header is not set.
func ifMatch(c echo.Context) (domain.ID, *int64, error) {
	raw := strings.TrimSpace(c.Request().Header.Get(headerIfMatch))
	if raw == "" {
		return 0, nil, nil
	}

	invalid := echo.NewHTTPError(http.StatusUnprocessableEntity, "Invalid If-Match: "+raw)

	rawID, rawVersion, ok := strings.Cut(strings.Trim(raw, `"`), "-")
	if !ok {
		return 0, nil, invalid
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return 0, nil, invalid
	}

	version, err := strconv.ParseInt(rawVersion, 10, 64)
	if err != nil || version < 0 {
		return 0, nil, invalid
	}

	return domain.ID(id), &version, nil
}

func malformedBody(err error) error {
	return echo.NewHTTPError(http.StatusUnprocessableEntity, "Invalid request body").SetInternal(err)
}
