package logger

import (
	"context"

	"go.uber.org/zap"
)

type contextKey struct{}

// NewContextWithLogger returns a copy of ctx carrying log.
func NewContextWithLogger(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, log)
}

// FromContext returns the zap.Logger carried by ctx, or nil if none was
// attached.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return nil
	}
	l, _ := ctx.Value(contextKey{}).(*zap.Logger)
	return l
}

// FromContextOr returns the logger carried by ctx, falling back to log.
func FromContextOr(ctx context.Context, log *zap.Logger) *zap.Logger {
	if l := FromContext(ctx); l != nil {
		return l
	}
	return log
}
