package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// ContextWithLogger stores a logger in the context.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// WithFields derives a child of base carrying fields and stores it in ctx.
func WithFields(ctx context.Context, base *zap.Logger, fields ...zap.Field) (context.Context, *zap.Logger) {
	l := base.With(fields...)
	return ContextWithLogger(ctx, l), l
}

// FromContext returns the request-scoped logger, or a no-op logger when
// none was stored.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
