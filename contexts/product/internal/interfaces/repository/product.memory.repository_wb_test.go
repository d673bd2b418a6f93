package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-arrower/productstore/contexts/product/internal/domain"
)

func TestProductMemoryRepository_lock(t *testing.T) {
	t.Parallel()

	t.Run("locks are released after use", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		repo := NewProductMemoryRepository()

		for id := domain.ProductID(1); id <= 100; id++ {
			product, err := repo.Create(ctx, id, "n", 1)
			require.NoError(t, err)

			_, err = repo.Update(ctx, product)
			require.NoError(t, err)

			err = repo.Delete(ctx, id)
			require.NoError(t, err)
		}

		assert.Empty(t, repo.locks)
	})

	t.Run("concurrent callers share one lock", func(t *testing.T) {
		t.Parallel()

		repo := NewProductMemoryRepository()
		counter := 0

		wg := sync.WaitGroup{}
		for range 50 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				unlock := repo.lock(7)
				counter++
				unlock()
			}()
		}

		wg.Wait()

		assert.Equal(t, 50, counter)
		assert.Empty(t, repo.locks)
	})
}
