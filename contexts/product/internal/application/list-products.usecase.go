package application

import (
	"context"

	"github.com/go-arrower/productstore/app"
	"github.com/go-arrower/productstore/contexts/product/internal/domain"
)

func NewListProductsQueryHandler(repo domain.Repository) app.Query[ListProductsQuery, []domain.Product] {
	return &listProductsQueryHandler{repo: repo}
}

type listProductsQueryHandler struct {
	repo domain.Repository
}

type ListProductsQuery struct{}

// H returns all products ordered by their ProductID.
func (h *listProductsQueryHandler) H(ctx context.Context, _ ListProductsQuery) ([]domain.Product, error) {
	products, err := h.repo.All(ctx)
	if err != nil {
		return nil, err //nolint:wrapcheck // the message is for the client
	}

	if products == nil {
		products = []domain.Product{}
	}

	return products, nil
}
