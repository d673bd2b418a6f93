package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	ctx2 "github.com/go-arrower/productstore/ctx"
)

const spanKey ctx2.CTXKey = "postgres.span"

var _ pgx.QueryTracer = (*pgxTraceAdapter)(nil)

// pgxTraceAdapter creates a span for every query.
type pgxTraceAdapter struct {
	tracer trace.Tracer
}

func (p *pgxTraceAdapter) TraceQueryStart(
	ctx context.Context,
	conn *pgx.Conn,
	data pgx.TraceQueryStartData,
) context.Context {
	conf := conn.Config()

	ctx, span := p.tracer.Start(ctx, "pgx",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.name", conf.Database),
			attribute.String("db.user", conf.User),
			attribute.String("server.address", conf.Host),
			attribute.Int("server.port", int(conf.Port)),
			attribute.String("db.statement", data.SQL),
			attribute.StringSlice("db.statement.args", argsToStrings(data.Args)),
		),
	)

	return context.WithValue(ctx, spanKey, span)
}

func (p *pgxTraceAdapter) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span, ok := ctx.Value(spanKey).(trace.Span)
	if !ok {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", data.CommandTag.RowsAffected()))

	if data.Err != nil {
		span.SetStatus(codes.Error, data.Err.Error())
	}

	span.End()
}

func argsToStrings(args []any) []string {
	s := make([]string, len(args))

	for i, arg := range args {
		s[i] = fmt.Sprintf("%v", arg)
	}

	return s
}
