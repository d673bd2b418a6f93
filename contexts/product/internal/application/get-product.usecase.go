package application

import (
	"context"

	"github.com/go-arrower/productstore/app"
	"github.com/go-arrower/productstore/contexts/product/internal/domain"
)

func NewGetProductQueryHandler(repo domain.Repository) app.Query[GetProductQuery, domain.Product] {
	return &getProductQueryHandler{repo: repo}
}

type getProductQueryHandler struct {
	repo domain.Repository
}

type GetProductQuery struct {
	ProductID domain.ProductID `json:"productId"`
}

func (h *getProductQueryHandler) H(ctx context.Context, query GetProductQuery) (domain.Product, error) {
	if !query.ProductID.Valid() {
		return domain.Product{}, domain.InvalidProductID(query.ProductID)
	}

	return h.repo.FindByProductID(ctx, query.ProductID) //nolint:wrapcheck // the message is for the client
}
