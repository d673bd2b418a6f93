// Package repository contains the implementations of domain.Repository.
package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/go-arrower/productstore/contexts/product/internal/domain"
)

// NewProductMemoryRepository returns an empty in-memory store.
// It is safe for concurrent use and operations on different products do not block one another.
func NewProductMemoryRepository() *ProductMemoryRepository {
	return &ProductMemoryRepository{locks: map[domain.ProductID]*rowLock{}}
}

type ProductMemoryRepository struct {
	// table is held exclusively only by DeleteAll, every other operation shares it.
	table sync.RWMutex

	locksMu sync.Mutex
	locks   map[domain.ProductID]*rowLock // only ids currently in use

	rows   sync.Map // domain.ProductID => domain.Product
	ids    sync.Map // domain.ID => domain.ProductID
	lastID atomic.Int64
}

var _ domain.Repository = (*ProductMemoryRepository)(nil)

func (repo *ProductMemoryRepository) Create(
	_ context.Context,
	productID domain.ProductID,
	name string,
	weight int,
) (domain.Product, error) {
	repo.table.RLock()
	defer repo.table.RUnlock()

	unlock := repo.lock(productID)
	defer unlock()

	if _, exists := repo.rows.Load(productID); exists {
		return domain.Product{}, domain.DuplicateProduct(productID)
	}

	product := domain.Product{
		ID:        domain.ID(repo.lastID.Add(1)),
		Version:   0,
		ProductID: productID,
		Name:      name,
		Weight:    weight,
	}

	repo.rows.Store(productID, product)
	repo.ids.Store(product.ID, productID)

	return product, nil
}

func (repo *ProductMemoryRepository) FindByProductID(_ context.Context, productID domain.ProductID) (domain.Product, error) {
	repo.table.RLock()
	defer repo.table.RUnlock()

	if row, ok := repo.rows.Load(productID); ok {
		return row.(domain.Product), nil //nolint:forcetypeassert // only products are stored
	}

	return domain.Product{}, domain.ProductNotFound(productID)
}

func (repo *ProductMemoryRepository) FindByID(_ context.Context, id domain.ID) (domain.Product, error) {
	repo.table.RLock()
	defer repo.table.RUnlock()

	productID, ok := repo.ids.Load(id)
	if ok {
		if row, ok := repo.rows.Load(productID); ok && row.(domain.Product).ID == id { //nolint:forcetypeassert,lll // only products are stored
			return row.(domain.Product), nil //nolint:forcetypeassert // only products are stored
		}
	}

	return domain.Product{}, fmt.Errorf("%w: no product with id %d", domain.ErrNotFound, id)
}

func (repo *ProductMemoryRepository) All(_ context.Context) ([]domain.Product, error) {
	repo.table.RLock()
	defer repo.table.RUnlock()

	products := []domain.Product{}

	repo.rows.Range(func(_, row any) bool {
		products = append(products, row.(domain.Product)) //nolint:forcetypeassert // only products are stored

		return true
	})

	slices.SortFunc(products, func(a, b domain.Product) int {
		return cmp.Compare(a.ProductID, b.ProductID)
	})

	return products, nil
}

func (repo *ProductMemoryRepository) Count(ctx context.Context) (int, error) {
	all, err := repo.All(ctx)

	return len(all), err
}

func (repo *ProductMemoryRepository) Update(_ context.Context, product domain.Product) (int64, error) {
	repo.table.RLock()
	defer repo.table.RUnlock()

	productID, ok := repo.ids.Load(product.ID)
	if !ok {
		return 0, domain.ProductNotFound(product.ProductID)
	}

	unlock := repo.lock(productID.(domain.ProductID)) //nolint:forcetypeassert // only product ids are stored
	defer unlock()

	// the product could have been deleted between the index lookup and acquiring the lock
	row, ok := repo.rows.Load(productID)
	if !ok || row.(domain.Product).ID != product.ID { //nolint:forcetypeassert // only products are stored
		return 0, domain.ProductNotFound(product.ProductID)
	}

	stored := row.(domain.Product) //nolint:forcetypeassert // only products are stored
	if stored.Version != product.Version {
		return 0, domain.StaleProduct(stored.ProductID, product.Version)
	}

	stored.Name = product.Name
	stored.Weight = product.Weight
	stored.Version++

	repo.rows.Store(stored.ProductID, stored)

	return stored.Version, nil
}

func (repo *ProductMemoryRepository) Delete(_ context.Context, productID domain.ProductID) error {
	repo.table.RLock()
	defer repo.table.RUnlock()

	unlock := repo.lock(productID)
	defer unlock()

	if row, loaded := repo.rows.LoadAndDelete(productID); loaded {
		repo.ids.Delete(row.(domain.Product).ID) //nolint:forcetypeassert // only products are stored
	}

	return nil
}

func (repo *ProductMemoryRepository) DeleteAll(_ context.Context) error {
	repo.table.Lock()
	defer repo.table.Unlock()

	repo.rows.Clear()
	repo.ids.Clear()

	return nil
}

type rowLock struct {
	mu   sync.Mutex
	refs int
}

// lock acquires the mutex of productID and returns the function to release it.
// The mutex is dropped again once no caller holds or waits for it.
func (repo *ProductMemoryRepository) lock(productID domain.ProductID) func() {
	repo.locksMu.Lock()

	l, ok := repo.locks[productID]
	if !ok {
		l = &rowLock{}
		repo.locks[productID] = l
	}

	l.refs++
	repo.locksMu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		repo.locksMu.Lock()
		defer repo.locksMu.Unlock()

		l.refs--
		if l.refs == 0 {
			delete(repo.locks, productID)
		}
	}
}
