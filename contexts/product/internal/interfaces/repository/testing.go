package repository

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/go-arrower/productstore/contexts/product/internal/domain"
)

// TestSuite is the contract of domain.Repository.
// Every implementation has to pass it.
// newRepo is called once per test case and has to return an empty repository.
func TestSuite(t *testing.T, newRepo func() domain.Repository) { //nolint:tparallel,maintidx // t.Parallel can only be called ones! The caller decides
	t.Helper()

	if newRepo == nil {
		t.Fatal("repository constructor is nil")
	}

	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		t.Parallel()

		t.Run("assign id and start with version 0", func(t *testing.T) {
			t.Parallel()

			repo := newRepo()
			name, weight := gofakeit.Name(), gofakeit.Number(1, 100)

			product, err := repo.Create(ctx, 7, name, weight)
			require.NoError(t, err)

			assert.NotZero(t, product.ID)
			assert.Equal(t, int64(0), product.Version)
			assert.Equal(t, domain.ProductID(7), product.ProductID)
			assert.Equal(t, name, product.Name)
			assert.Equal(t, weight, product.Weight)
		})

		t.Run("round trip", func(t *testing.T) {
			t.Parallel()

			repo := newRepo()

			created, err := repo.Create(ctx, 1, "n", 1)
			require.NoError(t, err)

			found, err := repo.FindByProductID(ctx, 1)
			assert.NoError(t, err)
			assert.Equal(t, created, found)

			found, err = repo.FindByID(ctx, created.ID)
			assert.NoError(t, err)
			assert.Equal(t, created, found)
		})

		t.Run("duplicate product id", func(t *testing.T) {
			t.Parallel()

			repo := newRepo()

			_, err := repo.Create(ctx, 1, "n", 1)
			require.NoError(t, err)

			_, err = repo.Create(ctx, 1, "n", 1)
			assert.ErrorIs(t, err, domain.ErrDuplicateKey)

			count, err := repo.Count(ctx)
			assert.NoError(t, err)
			assert.Equal(t, 1, count)
		})

		t.Run("concurrent creates of the same product id", func(t *testing.T) {
			t.Parallel()

			const workers = 10

			repo := newRepo()

			var (
				succeeded  atomic.Int32
				duplicates atomic.Int32
				g          errgroup.Group
			)

			for range workers {
				g.Go(func() error {
					_, err := repo.Create(ctx, 42, gofakeit.Name(), 1)

					switch {
					case err == nil:
						succeeded.Add(1)
					case errors.Is(err, domain.ErrDuplicateKey):
						duplicates.Add(1)
					default:
						return err
					}

					return nil
				})
			}

			require.NoError(t, g.Wait())
			assert.Equal(t, int32(1), succeeded.Load())
			assert.Equal(t, int32(workers-1), duplicates.Load())

			count, err := repo.Count(ctx)
			assert.NoError(t, err)
			assert.Equal(t, 1, count)
		})

		t.Run("different products", func(t *testing.T) {
			t.Parallel()

			repo := newRepo()

			p0, err := repo.Create(ctx, 1, "n", 1)
			require.NoError(t, err)
			p1, err := repo.Create(ctx, 2, "n", 1)
			require.NoError(t, err)

			assert.NotEqual(t, p0.ID, p1.ID)

			count, err := repo.Count(ctx)
			assert.NoError(t, err)
			assert.Equal(t, 2, count)
		})
	})

	t.Run("Find", func(t *testing.T) {
		t.Parallel()

		t.Run("absent product id", func(t *testing.T) {
			t.Parallel()

			repo := newRepo()

			_, err := repo.FindByProductID(ctx, 13)
			assert.ErrorIs(t, err, domain.ErrNotFound)
			assert.EqualError(t, err, "No product found for productId: 13")
		})

		t.Run("absent id", func(t *testing.T) {
			t.Parallel()

			repo := newRepo()

			_, err := repo.FindByID(ctx, 1337)
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})

		t.Run("all ordered by product id", func(t *testing.T) {
			t.Parallel()

			repo := newRepo()

			all, err := repo.All(ctx)
			assert.NoError(t, err)
			assert.Empty(t, all)

			for _, id := range []domain.ProductID{3, 1, 2} {
				_, err = repo.Create(ctx, id, gofakeit.Name(), 1)
				require.NoError(t, err)
			}

			all, err = repo.All(ctx)
			assert.NoError(t, err)
			assert.Len(t, all, 3)

			for i, p := range all {
				assert.Equal(t, domain.ProductID(i+1), p.ProductID)
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Parallel()

		t.Run("increment version and reject stale version", func(t *testing.T) {
			t.Parallel()

			repo := newRepo()

			product, err := repo.Create(ctx, 7, "n", 1)
			require.NoError(t, err)

			product.Name = "n2"

			version, err := repo.Update(ctx, product)
			assert.NoError(t, err)
			assert.Equal(t, int64(1), version)

			found, err := repo.FindByProductID(ctx, 7)
			assert.NoError(t, err)
			assert.Equal(t, int64(1), found.Version)
			assert.Equal(t, "n2", found.Name)

			// retry with the now stale version 0
			product.Name = "n3"

			_, err = repo.Update(ctx, product)
			assert.ErrorIs(t, err, domain.ErrVersionConflict)

			found, err = repo.FindByProductID(ctx, 7)
			assert.NoError(t, err)
			assert.Equal(t, int64(1), found.Version, "rejected update leaves storage unchanged")
			assert.Equal(t, "n2", found.Name, "rejected update leaves storage unchanged")
		})

		t.Run("consecutive updates", func(t *testing.T) {
			t.Parallel()

			repo := newRepo()

			product, err := repo.Create(ctx, 7, "n", 1)
			require.NoError(t, err)

			for i := range 5 {
				product.Weight = i

				product.Version, err = repo.Update(ctx, product)
				require.NoError(t, err)
				assert.Equal(t, int64(i+1), product.Version)
			}

			found, err := repo.FindByProductID(ctx, 7)
			assert.NoError(t, err)
			assert.Equal(t, product, found)
		})

		t.Run("absent product", func(t *testing.T) {
			t.Parallel()

			repo := newRepo()

			_, err := repo.Update(ctx, domain.Product{ID: 1337, ProductID: 13})
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})

		t.Run("deleted product", func(t *testing.T) {
			t.Parallel()

			repo := newRepo()

			product, err := repo.Create(ctx, 7, "n", 1)
			require.NoError(t, err)

			err = repo.Delete(ctx, 7)
			require.NoError(t, err)

			_, err = repo.Update(ctx, product)
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})

		t.Run("product id is immutable", func(t *testing.T) {
			t.Parallel()

			repo := newRepo()

			product, err := repo.Create(ctx, 7, "n", 1)
			require.NoError(t, err)

			product.ProductID = 8

			_, err = repo.Update(ctx, product)
			assert.NoError(t, err)

			_, err = repo.FindByProductID(ctx, 7)
			assert.NoError(t, err)

			_, err = repo.FindByProductID(ctx, 8)
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})

		t.Run("concurrent updates of the same version", func(t *testing.T) {
			t.Parallel()

			const workers = 10

			repo := newRepo()

			product, err := repo.Create(ctx, 7, "n", 1)
			require.NoError(t, err)

			var (
				succeeded atomic.Int32
				conflicts atomic.Int32
				g         errgroup.Group
			)

			for i := range workers {
				g.Go(func() error {
					p := product
					p.Weight = i

					_, err := repo.Update(ctx, p)

					switch {
					case err == nil:
						succeeded.Add(1)
					case errors.Is(err, domain.ErrVersionConflict):
						conflicts.Add(1)
					default:
						return err
					}

					return nil
				})
			}

			require.NoError(t, g.Wait())
			assert.Equal(t, int32(1), succeeded.Load(), "no two updates can both succeed from the same version")
			assert.Equal(t, int32(workers-1), conflicts.Load())

			found, err := repo.FindByProductID(ctx, 7)
			assert.NoError(t, err)
			assert.Equal(t, int64(1), found.Version)
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Parallel()

		t.Run("delete and recreate", func(t *testing.T) {
			t.Parallel()

			repo := newRepo()

			deleted, err := repo.Create(ctx, 7, "n", 1)
			require.NoError(t, err)

			err = repo.Delete(ctx, 7)
			assert.NoError(t, err)

			_, err = repo.FindByProductID(ctx, 7)
			assert.ErrorIs(t, err, domain.ErrNotFound)

			recreated, err := repo.Create(ctx, 7, "n", 1)
			assert.NoError(t, err)
			assert.NotEqual(t, deleted.ID, recreated.ID, "surrogate id is never reused")
			assert.Equal(t, int64(0), recreated.Version)
		})

		t.Run("idempotent", func(t *testing.T) {
			t.Parallel()

			repo := newRepo()

			err := repo.Delete(ctx, 7)
			assert.NoError(t, err)

			err = repo.Delete(ctx, 7)
			assert.NoError(t, err)
		})

		t.Run("only the given product", func(t *testing.T) {
			t.Parallel()

			repo := newRepo()

			_, err := repo.Create(ctx, 1, "n", 1)
			require.NoError(t, err)
			_, err = repo.Create(ctx, 2, "n", 1)
			require.NoError(t, err)

			err = repo.Delete(ctx, 1)
			assert.NoError(t, err)

			_, err = repo.FindByProductID(ctx, 2)
			assert.NoError(t, err)
		})

		t.Run("delete all", func(t *testing.T) {
			t.Parallel()

			repo := newRepo()

			ids := []domain.ProductID{1, 2, 3}
			for _, id := range ids {
				_, err := repo.Create(ctx, id, gofakeit.Name(), 1)
				require.NoError(t, err)
			}

			err := repo.DeleteAll(ctx)
			assert.NoError(t, err)

			for _, id := range ids {
				_, err = repo.FindByProductID(ctx, id)
				assert.ErrorIs(t, err, domain.ErrNotFound)
			}

			count, err := repo.Count(ctx)
			assert.NoError(t, err)
			assert.Equal(t, 0, count)

			_, err = repo.Create(ctx, 1, "n", 1)
			assert.NoError(t, err, "product id is available again")
		})

		t.Run("delete all while reading", func(t *testing.T) {
			t.Parallel()

			const products = 50

			repo := newRepo()

			for id := range products {
				_, err := repo.Create(ctx, domain.ProductID(id+1), "n", 1)
				require.NoError(t, err)
			}

			var g errgroup.Group

			g.Go(func() error {
				return repo.DeleteAll(ctx)
			})

			g.Go(func() error {
				all, err := repo.All(ctx)
				if err != nil {
					return err
				}

				if len(all) != 0 && len(all) != products {
					return errors.New("observed a partially cleared store") //nolint:err113
				}

				return nil
			})

			assert.NoError(t, g.Wait())
		})
	})
}
