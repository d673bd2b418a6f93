package web

import (
	"net/http"

	"github.com/go-arrower/productstore/contexts/product/internal/domain"
	"github.com/go-arrower/productstore/httperr"
)

// MapErrors registers the status of each domain error.
// All other errors of the context, e.g. domain.ErrPersistenceFailed, become an internal server error.
func MapErrors(handler *httperr.Handler) *httperr.Handler {
	return handler.
		Map(domain.ErrInvalidInput, http.StatusUnprocessableEntity).
		Map(domain.ErrNotFound, http.StatusNotFound).
		Map(domain.ErrVersionConflict, http.StatusConflict).
		Map(domain.ErrDuplicateKey, http.StatusConflict)
}
