package application

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/go-arrower/productstore/app"
	"github.com/go-arrower/productstore/contexts/product/internal/domain"
)

const (
	maxUpdateRetries       = 5
	initialRetryInterval   = 10 * time.Millisecond
	maxRetryInterval       = 200 * time.Millisecond
	maxRetryElapsedTimeout = 2 * time.Second
)

// RetryPolicy returns a fresh backoff for each update.
type RetryPolicy func() backoff.BackOff

// DefaultRetryPolicy retries a conflicting update a few times with an exponential backoff.
func DefaultRetryPolicy() backoff.BackOff {
	return backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(initialRetryInterval),
			backoff.WithMaxInterval(maxRetryInterval),
			backoff.WithMaxElapsedTime(maxRetryElapsedTimeout),
		),
		maxUpdateRetries,
	)
}

// NewUpdateProductRequestHandler replaces name and weight of an existing product.
//
// If the request carries an ExpectedVersion the update is rejected with domain.ErrVersionConflict,
// in case the product changed in between. With an ExpectedID the product must also still be the same
// record, so a product deleted and created again under the same ProductID is rejected as well. Without it, the product is read again and the update is
// retried according to retry, nil uses DefaultRetryPolicy.
func NewUpdateProductRequestHandler(repo domain.Repository, retry RetryPolicy) app.Request[UpdateProductRequest, domain.Product] {
	if retry == nil {
		retry = DefaultRetryPolicy
	}

	return &updateProductRequestHandler{repo: repo, retry: retry}
}

type updateProductRequestHandler struct {
	repo  domain.Repository
	retry RetryPolicy
}

type UpdateProductRequest struct {
	ExpectedID      domain.ID        `json:"-"`
	ExpectedVersion *int64           `json:"-"`
	ProductID       domain.ProductID `json:"productId"`
	Name            string           `json:"name"      validate:"required,max=255"`
	Weight          int              `json:"weight"    validate:"gte=0"`
}

func (h *updateProductRequestHandler) H(ctx context.Context, req UpdateProductRequest) (domain.Product, error) {
	if !req.ProductID.Valid() {
		return domain.Product{}, domain.InvalidProductID(req.ProductID)
	}

	if req.ExpectedVersion != nil {
		return h.update(ctx, req)
	}

	return backoff.RetryWithData(func() (domain.Product, error) { //nolint:wrapcheck // the message is for the client
		product, err := h.update(ctx, req)
		if err != nil && !errors.Is(err, domain.ErrVersionConflict) {
			return domain.Product{}, backoff.Permanent(err)
		}

		return product, err
	}, backoff.WithContext(h.retry(), ctx))
}

// update reads the current state and writes it back with the new values.
func (h *updateProductRequestHandler) update(ctx context.Context, req UpdateProductRequest) (domain.Product, error) {
	product, err := h.repo.FindByProductID(ctx, req.ProductID)
	if err != nil {
		return domain.Product{}, err //nolint:wrapcheck // the message is for the client
	}

	if req.ExpectedVersion != nil {
		if req.ExpectedID != 0 && req.ExpectedID != product.ID {
			return domain.Product{}, domain.StaleProduct(req.ProductID, *req.ExpectedVersion)
		}

		product.Version = *req.ExpectedVersion
	}

	product.Name = req.Name
	product.Weight = req.Weight

	version, err := h.repo.Update(ctx, product)
	if err != nil {
		// the record read above got deleted in the meantime
		if req.ExpectedVersion != nil && errors.Is(err, domain.ErrNotFound) {
			return domain.Product{}, domain.StaleProduct(req.ProductID, *req.ExpectedVersion)
		}

		return domain.Product{}, err //nolint:wrapcheck // the message is for the client
	}

	product.Version = version

	return product, nil
}
