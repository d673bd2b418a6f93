package app

import (
	"context"
	"log/slog"

	"github.com/go-arrower/productstore/alog"
)

func NewLoggedRequest[Req any, Res any](logger alog.Logger, req Request[Req, Res]) Request[Req, Res] {
	return &loggingDecorator[Req, Res]{kind: "request", logger: logger, base: req}
}

func NewLoggedCommand[C any](logger alog.Logger, cmd Command[C]) Command[C] {
	return decorateCommand(cmd, func(req Request[C, struct{}]) Request[C, struct{}] {
		return &loggingDecorator[C, struct{}]{kind: "command", logger: logger, base: req}
	})
}

func NewLoggedQuery[Q any, Res any](logger alog.Logger, query Query[Q, Res]) Query[Q, Res] {
	return &loggingDecorator[Q, Res]{kind: "query", logger: logger, base: query}
}

type loggingDecorator[In any, Out any] struct {
	logger alog.Logger
	base   Request[In, Out]
	kind   string
}

func (d *loggingDecorator[In, Out]) H(ctx context.Context, in In) (Out, error) { //nolint:ireturn // valid use of generics
	name := slog.String("command", commandName(in))

	d.logger.DebugContext(ctx, "executing "+d.kind, name)

	out, err := d.base.H(ctx, in)
	if err != nil {
		d.logger.DebugContext(ctx, "failed to execute "+d.kind, name, alog.Error(err))

		return out, err //nolint:wrapcheck // decorate but not change anything
	}

	d.logger.DebugContext(ctx, d.kind+" executed successfully", name)

	return out, nil
}
