package application_test

import (
	"math"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"

	"github.com/go-arrower/productstore/contexts/product/internal/application"
	"github.com/go-arrower/productstore/contexts/product/internal/domain"
	"github.com/go-arrower/productstore/contexts/product/internal/interfaces/repository"
)

func TestCreateProductRequestHandler_H(t *testing.T) {
	t.Parallel()

	t.Run("create product", func(t *testing.T) {
		t.Parallel()

		repo := repository.NewProductMemoryRepository()
		name, weight := gofakeit.Name(), gofakeit.Number(0, 100)

		handler := application.NewCreateProductRequestHandler(repo)
		res, err := handler.H(ctx, application.CreateProductRequest{ProductID: 7, Name: name, Weight: weight})
		assert.NoError(t, err)
		assert.Equal(t, int64(0), res.Version)
		assert.Equal(t, name, res.Name)

		// verify
		product, err := repo.FindByProductID(ctx, 7)
		assert.NoError(t, err)
		assert.Equal(t, res, product)
	})

	t.Run("duplicate product", func(t *testing.T) {
		t.Parallel()

		repo, _ := newRepoWithProduct(7)

		handler := application.NewCreateProductRequestHandler(repo)
		_, err := handler.H(ctx, application.CreateProductRequest{ProductID: 7, Name: "n"})
		assert.ErrorIs(t, err, domain.ErrDuplicateKey)
		assert.EqualError(t, err, "Product with productId 7 exists already")
	})

	t.Run("invalid product id", func(t *testing.T) {
		t.Parallel()

		repo := &spyRepository{}

		handler := application.NewCreateProductRequestHandler(repo)
		_, err := handler.H(ctx, application.CreateProductRequest{ProductID: 0, Name: "n"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Zero(t, repo.calls.Load())
	})

	t.Run("product id above the column range", func(t *testing.T) {
		t.Parallel()

		repo := &spyRepository{}

		handler := application.NewCreateProductRequestHandler(repo)
		_, err := handler.H(ctx, application.CreateProductRequest{ProductID: math.MaxInt32 + 1, Name: "n"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.EqualError(t, err, "Invalid productId: 2147483648")
		assert.Zero(t, repo.calls.Load())
	})
}
