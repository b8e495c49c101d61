// Package contextx defines typed context keys for the values threaded
// through request handling: the DI container, the request-scoped logger,
// and correlation identifiers (request id, trace id). Kept deliberately
// small — no ambient auth or metadata, since the core has no
// authentication story and no generated wire types.
package contextx

import (
	"context"

	"github.com/edgetwin/runtime/pkg/di"
	"go.uber.org/zap"
)

type (
	diKeyType        struct{}
	loggerKeyType    struct{}
	requestIDKeyType struct{}
	traceIDKeyType   struct{}
)

var (
	diKey        = diKeyType{}
	loggerKey    = loggerKeyType{}
	requestIDKey = requestIDKeyType{}
	traceIDKey   = traceIDKeyType{}
)

// WithDI attaches a DI container to ctx.
func WithDI(ctx context.Context, c *di.Container) context.Context {
	return context.WithValue(ctx, diKey, c)
}

// DI retrieves the DI container attached to ctx, or nil.
func DI(ctx context.Context) *di.Container {
	if c, ok := ctx.Value(diKey).(*di.Container); ok {
		return c
	}
	return nil
}

// WithLogger attaches a request-scoped logger to ctx.
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// Logger retrieves the logger attached to ctx, or nil.
func Logger(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return nil
}

// WithRequestID attaches a request id to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID retrieves the request id attached to ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithTraceID attaches a trace id to ctx.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey, id)
}

// TraceID retrieves the trace id attached to ctx, or "".
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}
