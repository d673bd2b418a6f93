package app

import (
	"context"
	"errors"
)

//
// This file contains convenience helpers you can use to test
// your calling code relying on the use case pattern, e.g. controllers.
//

var ErrUseCaseFailed = errors.New("usecase failed")

// TestRequestHandler returns a Request that delegates to handler.
// Use it to assert the input the calling code passes to the use case.
func TestRequestHandler[Req any, Res any](handler func(ctx context.Context, req Req) (Res, error)) Request[Req, Res] {
	return &funcHandler[Req, Res]{h: handler}
}

// TestQueryHandler returns a Query that delegates to handler.
func TestQueryHandler[Q any, Res any](handler func(ctx context.Context, query Q) (Res, error)) Query[Q, Res] {
	return &funcHandler[Q, Res]{h: handler}
}

// TestCommandHandler returns a Command that delegates to handler.
func TestCommandHandler[C any](handler func(ctx context.Context, cmd C) error) Command[C] {
	return requestAsCommand[C]{base: &funcHandler[C, struct{}]{h: func(ctx context.Context, cmd C) (struct{}, error) {
		return struct{}{}, handler(ctx, cmd)
	}}}
}

func TestSuccessRequestHandler[Req any, Res any]() Request[Req, Res] {
	return &stubHandler[Req, Res]{}
}

func TestFailureRequestHandler[Req any, Res any]() Request[Req, Res] {
	return &stubHandler[Req, Res]{err: ErrUseCaseFailed}
}

func TestSuccessCommandHandler[C any]() Command[C] {
	return requestAsCommand[C]{base: &stubHandler[C, struct{}]{}}
}

func TestFailureCommandHandler[C any]() Command[C] {
	return requestAsCommand[C]{base: &stubHandler[C, struct{}]{err: ErrUseCaseFailed}}
}

func TestSuccessQueryHandler[Q any, Res any]() Query[Q, Res] {
	return &stubHandler[Q, Res]{}
}

func TestFailureQueryHandler[Q any, Res any]() Query[Q, Res] {
	return &stubHandler[Q, Res]{err: ErrUseCaseFailed}
}

type stubHandler[In any, Out any] struct {
	res Out
	err error
}

func (h *stubHandler[In, Out]) H(_ context.Context, _ In) (Out, error) { //nolint:ireturn // valid use of generics
	return h.res, h.err
}

type funcHandler[In any, Out any] struct {
	h func(ctx context.Context, in In) (Out, error)
}

func (h *funcHandler[In, Out]) H(ctx context.Context, in In) (Out, error) { //nolint:ireturn // valid use of generics
	return h.h(ctx, in)
}
