// Package application contains the use cases of the product context.
//
// Errors of the domain are returned unwrapped, their message is meant for the client.
package application

import (
	"github.com/go-arrower/productstore/app"
	"github.com/go-arrower/productstore/contexts/product/internal/domain"
)

// ProductApplication bundles all use cases, so they can be handed to the web layer as one.
type ProductApplication struct {
	GetProduct    app.Query[GetProductQuery, domain.Product]
	ListProducts  app.Query[ListProductsQuery, []domain.Product]
	CreateProduct app.Request[CreateProductRequest, domain.Product]
	UpdateProduct app.Request[UpdateProductRequest, domain.Product]
	DeleteProduct app.Command[DeleteProductCommand]
}

// NewProductApplication wires all use cases to repo and wraps them with the instrumentation decorators.
func NewProductApplication(in app.Instrumentation, repo domain.Repository) ProductApplication {
	return ProductApplication{
		GetProduct:    app.NewInstrumentedQuery(in, NewGetProductQueryHandler(repo)),
		ListProducts:  app.NewInstrumentedQuery(in, NewListProductsQueryHandler(repo)),
		CreateProduct: app.NewInstrumentedRequest(in, NewCreateProductRequestHandler(repo)),
		UpdateProduct: app.NewInstrumentedRequest(in, NewUpdateProductRequestHandler(repo, nil)),
		DeleteProduct: app.NewInstrumentedCommand(in, NewDeleteProductCommandHandler(repo)),
	}
}
