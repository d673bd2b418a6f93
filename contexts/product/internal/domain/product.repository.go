package domain

import "context"

// Repository is the versioned record store for products.
//
// Every implementation guarantees:
//   - Create and the uniqueness check of ProductID are one atomic step.
//   - Update is an atomic compare-and-increment on Version, identified by ID.
//   - Failures are reported, never retried inside the repository.
type Repository interface {
	// Create returns the stored product with its assigned ID and Version 0,
	// or ErrDuplicateKey if a live product with productID exists.
	Create(ctx context.Context, productID ProductID, name string, weight int) (Product, error)

	// FindByProductID returns ErrNotFound if no live product has productID.
	FindByProductID(ctx context.Context, productID ProductID) (Product, error)
	// FindByID returns ErrNotFound if no live product has id.
	FindByID(ctx context.Context, id ID) (Product, error)
	// All returns all products ordered by ProductID.
	All(ctx context.Context) ([]Product, error)
	Count(ctx context.Context) (int, error)

	// Update replaces Name and Weight of the product with product.ID,
	// if product.Version is the currently stored version, and returns the new version.
	// It returns ErrNotFound if the product does not exist and
	// ErrVersionConflict if product.Version is stale; storage is unchanged in both cases.
	// ProductID is immutable and not updated.
	Update(ctx context.Context, product Product) (int64, error)

	// Delete removes the product with productID. Deleting an absent product is not an error.
	Delete(ctx context.Context, productID ProductID) error
	// DeleteAll removes all products at once.
	DeleteAll(ctx context.Context) error
}
