package logger

import (
	"context"

	"go.uber.org/zap"
)

// ctxKey keys the request-scoped logger in a context.
type ctxKey struct{}

// ContextWithLogger returns a child context carrying the logger. The HTTP
// middleware attaches a logger enriched with the request id here.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the context's logger, or a nop logger when none was
// attached (background jobs, tests).
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
