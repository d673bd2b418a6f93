// Package domain holds the product record and the rules every store has to honour.
package domain

import (
	"errors"
	"fmt"
	"math"
)

type (
	// ID is the surrogate key, assigned by the repository on creation.
	// It never changes and is never reused for a different product.
	ID int64

	// ProductID is the business key chosen by the caller.
	// Only one live product can have a given ProductID.
	ProductID int
)

// Product is a record in the versioned store.
// Version is the concurrency token: 0 after creation and incremented by one on every update.
type Product struct {
	ID        ID
	Version   int64
	ProductID ProductID
	Name      string
	Weight    int
}

// Valid reports if id is positive and fits into the 32 bit column every store uses.
func (id ProductID) Valid() bool {
	return id > 0 && id <= math.MaxInt32
}

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrVersionConflict   = errors.New("version conflict")
	ErrPersistenceFailed = errors.New("persistence operation failed")
)

// failure carries a message meant for the client,
// while errors.Is still matches its kind.
type failure struct {
	kind error
	msg  string
}

func (f failure) Error() string { return f.msg }
func (f failure) Unwrap() error { return f.kind }

func InvalidProductID(id ProductID) error {
	return failure{kind: ErrInvalidInput, msg: fmt.Sprintf("Invalid productId: %d", id)}
}

func ProductNotFound(id ProductID) error {
	return failure{kind: ErrNotFound, msg: fmt.Sprintf("No product found for productId: %d", id)}
}

func DuplicateProduct(id ProductID) error {
	return failure{kind: ErrDuplicateKey, msg: fmt.Sprintf("Product with productId %d exists already", id)}
}

func StaleProduct(id ProductID, version int64) error {
	return failure{
		kind: ErrVersionConflict,
		msg:  fmt.Sprintf("Product with productId %d was modified concurrently, version %d is stale", id, version),
	}
}

// MalformedProductID is returned for a productId that is not a number.
func MalformedProductID(raw string) error {
	return failure{kind: ErrInvalidInput, msg: "Invalid productId: " + raw}
}
