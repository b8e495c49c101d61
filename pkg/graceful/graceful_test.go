package graceful

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	twinerrors "github.com/edgetwin/runtime/pkg/errors"
)

func TestLogAndWrapUnavailableClassifiesAsUnavailable(t *testing.T) {
	cause := errors.New("dial timeout")
	r := LogAndWrapUnavailable(context.Background(), nil, "ask-1", "provider-1", cause)

	assert.Equal(t, OutcomeTimedOut, r.Outcome)
	assert.Equal(t, "ask-1", r.AskID)
	assert.Equal(t, "provider-1", r.ProviderID)
	assert.ErrorIs(t, r.Err, twinerrors.ErrUnavailable)
	var unavailable *twinerrors.UnavailableError
	assert.ErrorAs(t, r.Err, &unavailable)
	assert.Same(t, cause, unavailable.Err)
}

func TestResultErrorStringIncludesDiagnostics(t *testing.T) {
	r := LogAndWrapUnavailable(context.Background(), nil, "ask-1", "provider-1", errors.New("boom"))
	msg := r.Error()
	assert.Contains(t, msg, "ask-1")
	assert.Contains(t, msg, "provider-1")
	assert.Contains(t, msg, "boom")
}

func TestResultUnwrapReturnsUnderlyingError(t *testing.T) {
	cause := errors.New("boom")
	r := LogAndWrapUnavailable(context.Background(), nil, "ask-1", "provider-1", cause)
	assert.ErrorIs(t, r.Unwrap(), twinerrors.ErrUnavailable)
}
