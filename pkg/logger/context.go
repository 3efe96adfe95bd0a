package logger

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

type captureKey struct{}

// With returns a context carrying the context logger extended with fields.
// When the context was prepared with Capture, the new logger is also
// written to the captured slot.
func With(ctx context.Context, fields ...any) context.Context {
	l := From(ctx).With(fields...)
	if slot, ok := ctx.Value(captureKey{}).(**slog.Logger); ok && slot != nil {
		*slot = l
	}
	return context.WithValue(ctx, loggerKey{}, l)
}

// Into stores l as the context logger.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// Capture lets a caller observe the logger built by inner handlers, which
// only see the derived context. The slot must not be shared across
// goroutines.
func Capture(ctx context.Context, slot **slog.Logger) context.Context {
	return context.WithValue(ctx, captureKey{}, slot)
}

// From returns the logger stored in ctx, or the process default.
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return LoggerWrapper()
}
