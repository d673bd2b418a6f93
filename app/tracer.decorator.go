package app

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func NewTracedRequest[Req any, Res any](traceProvider trace.TracerProvider, req Request[Req, Res]) Request[Req, Res] {
	return &tracingDecorator[Req, Res]{tracer: traceProvider.Tracer(instrumentationName), base: req}
}

func NewTracedCommand[C any](traceProvider trace.TracerProvider, cmd Command[C]) Command[C] {
	return decorateCommand(cmd, func(req Request[C, struct{}]) Request[C, struct{}] {
		return &tracingDecorator[C, struct{}]{tracer: traceProvider.Tracer(instrumentationName), base: req}
	})
}

func NewTracedQuery[Q any, Res any](traceProvider trace.TracerProvider, query Query[Q, Res]) Query[Q, Res] {
	return &tracingDecorator[Q, Res]{tracer: traceProvider.Tracer(instrumentationName), base: query}
}

type tracingDecorator[In any, Out any] struct {
	tracer trace.Tracer
	base   Request[In, Out]
}

func (d *tracingDecorator[In, Out]) H(ctx context.Context, in In) (Out, error) { //nolint:ireturn // valid use of generics
	newCtx, span := d.tracer.Start(ctx, "usecase",
		trace.WithAttributes(attribute.String("command", commandName(in))),
	)
	defer span.End()

	out, err := d.base.H(newCtx, in)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}

	return out, err //nolint:wrapcheck // decorate but not change anything
}
