package alog

import (
	"context"
	"log/slog"

	ctx2 "github.com/go-arrower/productstore/ctx"
)

const ctxAttrs ctx2.CTXKey = "alog.attrs"

// AddAttr adds a single attribute to ctx. All attributes in ctx are added
// to every record logged with this ctx by a logger created with New.
func AddAttr(ctx context.Context, attr slog.Attr) context.Context {
	return AddAttrs(ctx, attr)
}

// AddAttrs adds multiple attributes to ctx, see AddAttr.
func AddAttrs(ctx context.Context, newAttrs ...slog.Attr) context.Context {
	existing := FromContext(ctx)

	// copy, so the attributes of a parent context are never modified
	attrs := make([]slog.Attr, 0, len(existing)+len(newAttrs))
	attrs = append(attrs, existing...)
	attrs = append(attrs, newAttrs...)

	return context.WithValue(ctx, ctxAttrs, attrs)
}

// ClearAttrs removes all attributes from ctx.
func ClearAttrs(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxAttrs, []slog.Attr{})
}

// FromContext returns all attributes stored in ctx.
// It never returns nil.
func FromContext(ctx context.Context) []slog.Attr {
	if attrs, ok := ctx.Value(ctxAttrs).([]slog.Attr); ok {
		return attrs
	}

	return []slog.Attr{}
}
