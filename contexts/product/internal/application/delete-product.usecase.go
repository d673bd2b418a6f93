package application

import (
	"context"

	"github.com/go-arrower/productstore/app"
	"github.com/go-arrower/productstore/contexts/product/internal/domain"
)

func NewDeleteProductCommandHandler(repo domain.Repository) app.Command[DeleteProductCommand] {
	return &deleteProductCommandHandler{repo: repo}
}

type deleteProductCommandHandler struct {
	repo domain.Repository
}

type DeleteProductCommand struct {
	ProductID domain.ProductID `json:"productId"`
}

// H is idempotent, deleting an absent product succeeds.
func (h *deleteProductCommandHandler) H(ctx context.Context, cmd DeleteProductCommand) error {
	if !cmd.ProductID.Valid() {
		return domain.InvalidProductID(cmd.ProductID)
	}

	return h.repo.Delete(ctx, cmd.ProductID) //nolint:wrapcheck // the message is for the client
}
