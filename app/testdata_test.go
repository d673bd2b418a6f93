package app_test

import (
	"context"
	"errors"

	"github.com/go-arrower/productstore/app"
)

var (
	ctx = context.Background()

	errUseCase = errors.New("some-error")
)

type (
	request struct {
		ProductID int `json:"productId" validate:"gt=0"`
	}
	response struct {
		Name string
	}
)

// recordingHandler remembers how it was called.
type recordingHandler struct {
	err       error
	called    bool
	validated bool
}

func (h *recordingHandler) H(ctx context.Context, _ request) (response, error) {
	h.called = true
	h.validated = app.PassedValidation(ctx)

	return response{Name: "product"}, h.err
}

type recordingCommand struct {
	recordingHandler
}

func (h *recordingCommand) H(ctx context.Context, req request) error {
	_, err := h.recordingHandler.H(ctx, req)

	return err
}
