package alog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// LoggerOpt allows to initialise a logger with custom options.
type LoggerOpt func(h *storeHandler)

// WithHandler adds a slog.Handler to be logged to.
// You can set as many as you want.
func WithHandler(h slog.Handler) LoggerOpt {
	return func(s *storeHandler) {
		s.handlers = append(s.handlers, h)
	}
}

// WithLevel initialises the logger with a starting level.
// To change the level at run time use Unwrap(logger).SetLevel(LevelInfo).
func WithLevel(level slog.Level) LoggerOpt {
	return func(s *storeHandler) {
		s.level.Set(level)
	}
}

// New returns a production ready logger.
//
// If no options are given it creates a default handler, logging JSON to Stderr.
// Otherwise, use WithHandler to set your own outputs.
func New(opts ...LoggerOpt) *slog.Logger {
	return slog.New(newStoreHandler(opts...))
}

// NewDevelopment returns a logger for local development:
// human-readable text on Stderr at debug level.
// If lokiURL is set, all records are shipped to that loki instance as well.
func NewDevelopment(lokiURL string) *slog.Logger {
	opts := []LoggerOpt{
		WithLevel(slog.LevelDebug),
		WithHandler(slog.NewTextHandler(os.Stderr, getDebugHandlerOptions())),
	}

	if lokiURL != "" {
		opts = append(opts, WithHandler(NewLokiHandler(&LokiHandlerOptions{PushURL: lokiURL})))
	}

	return New(opts...)
}

// NewJSON returns a logger writing JSON lines to w at the given level.
func NewJSON(w io.Writer, level slog.Level) *slog.Logger {
	return New(
		WithLevel(level),
		WithHandler(slog.NewJSONHandler(w, getDefaultHandlerOptions())),
	)
}

func newStoreHandler(opts ...LoggerOpt) *storeHandler {
	handler := &storeHandler{
		level:    &slog.LevelVar{},
		handlers: []slog.Handler{},
	}
	handler.level.Set(slog.LevelInfo)

	for _, opt := range opts {
		opt(handler)
	}

	if len(handler.handlers) == 0 {
		handler.handlers = []slog.Handler{slog.NewJSONHandler(os.Stderr, getDefaultHandlerOptions())}
	}

	return handler
}

// storeHandler fans every record out to multiple handlers.
// It owns the level for all of them and correlates the records with the active trace.
type storeHandler struct {
	// level is shared by all handlers, including the copies created by WithAttrs and WithGroup.
	// The level of individual handlers set via WithHandler is ignored.
	level *slog.LevelVar

	handlers []slog.Handler
}

var (
	_ slog.Handler    = (*storeHandler)(nil)
	_ LevelController = (*storeHandler)(nil)
)

func (h *storeHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *storeHandler) Handle(ctx context.Context, record slog.Record) error {
	span := trace.SpanFromContext(ctx)

	record = addTraceAndSpanIDs(span, record)
	record.AddAttrs(FromContext(ctx)...)

	if span.IsRecording() {
		attrs := spanAttrsFromRecord(record)

		span.AddEvent("log", trace.WithAttributes(attrs...))

		if record.Level >= slog.LevelError {
			span.SetStatus(codes.Error, record.Message)
		}
	}

	var retErr error

	for _, handler := range h.handlers {
		err := handler.Handle(ctx, record.Clone())
		retErr = errors.Join(retErr, err)
	}

	return retErr
}

func (h *storeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))

	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}

	return &storeHandler{level: h.level, handlers: handlers}
}

func (h *storeHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))

	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}

	return &storeHandler{level: h.level, handlers: handlers}
}

// SetLevel changes the level for all handlers set with WithHandler,
// even the ones "copied" via any WithX method.
func (h *storeHandler) SetLevel(level slog.Level) {
	h.level.Set(level)
}

func (h *storeHandler) Level() slog.Level {
	return h.level.Level()
}

// LevelController offers control over a logger's level at run time.
// Unwrap a logger to get access to it.
type LevelController interface {
	SetLevel(level slog.Level)
	Level() slog.Level
}

// Unwrap returns the LevelController of logger.
// In case logger was not created by this package, it returns nil.
func Unwrap(logger Logger) LevelController { //nolint:ireturn // TestLogger and storeHandler are both valid
	switch l := logger.(type) {
	case *TestLogger:
		return l
	case *slog.Logger:
		if h, ok := l.Handler().(*storeHandler); ok {
			return h
		}
	}

	return nil
}

func addTraceAndSpanIDs(span trace.Span, record slog.Record) slog.Record {
	sCtx := span.SpanContext()

	if sCtx.HasTraceID() {
		record.AddAttrs(slog.String("traceID", sCtx.TraceID().String()))
	}

	if sCtx.HasSpanID() {
		record.AddAttrs(slog.String("spanID", sCtx.SpanID().String()))
	}

	return record
}

func spanAttrsFromRecord(record slog.Record) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("log.severity", record.Level.String()),
		attribute.String("log.message", record.Message),
	}

	record.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, attribute.String(a.Key, a.Value.String()))

		return true
	})

	return attrs
}

func getDefaultHandlerOptions() *slog.HandlerOptions {
	return &slog.HandlerOptions{
		AddSource:   true,
		Level:       LevelDebug, // storeHandler decides, the individual handler lets everything through
		ReplaceAttr: MapLogLevelsToName,
	}
}

// getDebugHandlerOptions keeps the output readable, by removing not essential keys.
func getDebugHandlerOptions() *slog.HandlerOptions {
	opt := getDefaultHandlerOptions()
	opt.AddSource = false

	return opt
}
