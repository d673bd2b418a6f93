package application_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-arrower/productstore/contexts/product/internal/application"
	"github.com/go-arrower/productstore/contexts/product/internal/domain"
	"github.com/go-arrower/productstore/contexts/product/internal/interfaces/repository"
)

func TestGetProductQueryHandler_H(t *testing.T) {
	t.Parallel()

	t.Run("existing product", func(t *testing.T) {
		t.Parallel()

		repo, product := newRepoWithProduct(1)

		handler := application.NewGetProductQueryHandler(repo)
		res, err := handler.H(ctx, application.GetProductQuery{ProductID: 1})
		assert.NoError(t, err)
		assert.Equal(t, product, res)
	})

	t.Run("absent product", func(t *testing.T) {
		t.Parallel()

		handler := application.NewGetProductQueryHandler(repository.NewProductMemoryRepository())
		_, err := handler.H(ctx, application.GetProductQuery{ProductID: 13})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.EqualError(t, err, "No product found for productId: 13")
	})

	tests := []struct {
		productID domain.ProductID
		msg       string
	}{
		{0, "Invalid productId: 0"},
		{-1, "Invalid productId: -1"},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			t.Parallel()

			repo := &spyRepository{}

			handler := application.NewGetProductQueryHandler(repo)
			_, err := handler.H(ctx, application.GetProductQuery{ProductID: tt.productID})
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.EqualError(t, err, tt.msg)
			assert.Zero(t, repo.calls.Load(), "storage must not be touched")
		})
	}
}
