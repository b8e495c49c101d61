package contextx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/edgetwin/runtime/pkg/di"
)

func TestWithDIRoundTrips(t *testing.T) {
	c := di.New()
	ctx := WithDI(context.Background(), c)
	assert.Same(t, c, DI(ctx))
}

func TestDIReturnsNilWhenNotSet(t *testing.T) {
	assert.Nil(t, DI(context.Background()))
}

func TestWithLoggerRoundTrips(t *testing.T) {
	l := zap.NewNop()
	ctx := WithLogger(context.Background(), l)
	assert.Same(t, l, Logger(ctx))
}

func TestWithRequestIDRoundTrips(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", RequestID(ctx))
}

func TestRequestIDReturnsEmptyWhenNotSet(t *testing.T) {
	assert.Equal(t, "", RequestID(context.Background()))
}

func TestWithTraceIDRoundTrips(t *testing.T) {
	ctx := WithTraceID(context.Background(), "trace-1")
	assert.Equal(t, "trace-1", TraceID(ctx))
}
