package application_test

import (
	"context"
	"sync/atomic"

	"github.com/go-arrower/productstore/contexts/product/internal/domain"
	"github.com/go-arrower/productstore/contexts/product/internal/interfaces/repository"
)

var ctx = context.Background()

func newRepoWithProduct(productID domain.ProductID) (*repository.ProductMemoryRepository, domain.Product) {
	repo := repository.NewProductMemoryRepository()

	product, err := repo.Create(ctx, productID, "n", 1)
	if err != nil {
		panic(err)
	}

	return repo, product
}

// conflictingRepository simulates a concurrent writer:
// the first n updates fail, after the stored product got modified.
type conflictingRepository struct {
	domain.Repository

	conflicts atomic.Int64
	updates   atomic.Int64
}

func (repo *conflictingRepository) Update(ctx context.Context, product domain.Product) (int64, error) {
	repo.updates.Add(1)

	if repo.conflicts.Add(-1) >= 0 {
		current, err := repo.Repository.FindByID(ctx, product.ID)
		if err != nil {
			return 0, err
		}

		current.Weight++

		if _, err = repo.Repository.Update(ctx, current); err != nil {
			return 0, err
		}
	}

	return repo.Repository.Update(ctx, product)
}

// recreatingRepository simulates a concurrent client,
// deleting and creating the product again right before the update.
type recreatingRepository struct {
	domain.Repository
}

func (repo *recreatingRepository) Update(ctx context.Context, product domain.Product) (int64, error) {
	if err := repo.Repository.Delete(ctx, product.ProductID); err != nil {
		return 0, err
	}

	if _, err := repo.Repository.Create(ctx, product.ProductID, "someone-elses", 9); err != nil {
		return 0, err
	}

	return repo.Repository.Update(ctx, product)
}

// spyRepository fails the test, if any method is called.
type spyRepository struct {
	domain.Repository

	calls atomic.Int64
}

func (repo *spyRepository) FindByProductID(context.Context, domain.ProductID) (domain.Product, error) {
	repo.calls.Add(1)

	return domain.Product{}, nil
}

func (repo *spyRepository) Create(context.Context, domain.ProductID, string, int) (domain.Product, error) {
	repo.calls.Add(1)

	return domain.Product{}, nil
}

func (repo *spyRepository) Delete(context.Context, domain.ProductID) error {
	repo.calls.Add(1)

	return nil
}
