package application

import (
	"context"

	"github.com/go-arrower/productstore/app"
	"github.com/go-arrower/productstore/contexts/product/internal/domain"
)

func NewCreateProductRequestHandler(repo domain.Repository) app.Request[CreateProductRequest, domain.Product] {
	return &createProductRequestHandler{repo: repo}
}

type createProductRequestHandler struct {
	repo domain.Repository
}

type CreateProductRequest struct {
	ProductID domain.ProductID `json:"productId"`
	Name      string           `json:"name"      validate:"required,max=255"`
	Weight    int              `json:"weight"    validate:"gte=0"`
}

func (h *createProductRequestHandler) H(ctx context.Context, req CreateProductRequest) (domain.Product, error) {
	if !req.ProductID.Valid() {
		return domain.Product{}, domain.InvalidProductID(req.ProductID)
	}

	return h.repo.Create(ctx, req.ProductID, req.Name, req.Weight) //nolint:wrapcheck // the message is for the client
}
