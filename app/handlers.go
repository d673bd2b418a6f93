// Package app provides the use case types of the application layer
// and the decorators every use case is wrapped with.
package app

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-arrower/productstore/alog"
)

// Request can produce side effects and return data.
type Request[Req any, Res any] interface {
	H(ctx context.Context, req Req) (Res, error)
}

// Command produces side effects, e.g. mutate state.
type Command[C any] interface {
	H(ctx context.Context, cmd C) error
}

// Query does not produce side effects and returns data.
type Query[Q any, Res any] interface {
	H(ctx context.Context, query Q) (Res, error)
}

// Instrumentation bundles the dependencies all decorators need.
type Instrumentation struct {
	TraceProvider trace.TracerProvider
	MeterProvider metric.MeterProvider
	Logger        alog.Logger
	Validate      *validator.Validate
}

// NewInstrumentedRequest is a convenience helper for easy dependency setup.
// The order of decorators represents the order of calling:
// tracing, metrics, logging, validation.
func NewInstrumentedRequest[Req any, Res any](in Instrumentation, req Request[Req, Res]) Request[Req, Res] {
	return NewTracedRequest(in.TraceProvider,
		NewMeteredRequest(in.MeterProvider,
			NewLoggedRequest(in.Logger,
				NewValidatedRequest(in.Validate, req))))
}

// NewInstrumentedCommand is a convenience helper for easy dependency setup, see NewInstrumentedRequest.
func NewInstrumentedCommand[C any](in Instrumentation, cmd Command[C]) Command[C] {
	return NewTracedCommand(in.TraceProvider,
		NewMeteredCommand(in.MeterProvider,
			NewLoggedCommand(in.Logger,
				NewValidatedCommand(in.Validate, cmd))))
}

// NewInstrumentedQuery is a convenience helper for easy dependency setup, see NewInstrumentedRequest.
func NewInstrumentedQuery[Q any, Res any](in Instrumentation, query Query[Q, Res]) Query[Q, Res] {
	return NewTracedQuery(in.TraceProvider,
		NewMeteredQuery(in.MeterProvider,
			NewLoggedQuery(in.Logger,
				NewValidatedQuery(in.Validate, query))))
}

// commandAsRequest lets all decorators share one implementation.
// A Command is a Request without a result.
type commandAsRequest[C any] struct {
	base Command[C]
}

func (c commandAsRequest[C]) H(ctx context.Context, cmd C) (struct{}, error) {
	return struct{}{}, c.base.H(ctx, cmd) //nolint:wrapcheck // decorate but not change anything
}

type requestAsCommand[C any] struct {
	base Request[C, struct{}]
}

func (r requestAsCommand[C]) H(ctx context.Context, cmd C) error {
	_, err := r.base.H(ctx, cmd)

	return err //nolint:wrapcheck // decorate but not change anything
}

func decorateCommand[C any](cmd Command[C], decorate func(Request[C, struct{}]) Request[C, struct{}]) Command[C] {
	return requestAsCommand[C]{base: decorate(commandAsRequest[C]{base: cmd})}
}

// commandName extracts a printable name from the type of cmd.
//
// For use cases inside a context, e.g. .../contexts/product/internal/application,
// the name is prefixed with the context: product.application.GetProductQuery.
// Otherwise, it falls back to packageName.structName.
func commandName(cmd any) string {
	t := reflect.TypeOf(cmd)
	if t == nil {
		return "<nil>"
	}

	_, afterContexts, found := strings.Cut(t.PkgPath(), "/contexts/")
	if found {
		if boundedContext, _, ok := strings.Cut(afterContexts, "/internal/"); ok {
			return fmt.Sprintf("%s.%T", boundedContext, cmd)
		}
	}

	return fmt.Sprintf("%T", cmd)
}
