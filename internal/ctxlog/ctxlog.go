// Package ctxlog carries a *slog.Logger through a context.Context so that
// every layer of a build invocation logs through the same configured handler.
package ctxlog

import (
	"context"
	"log/slog"
)

// key is unexported so no other package can collide with our context key.
type key struct{}

var loggerKey = key{}

// WithLogger returns a child context that carries the given logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from the context. Code paths that run
// before the application logger is configured fall back to slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
