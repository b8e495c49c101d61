// Package errors defines the runtime's error taxonomy: four kinds
// (Invalid input, Not found, Unavailable, Internal invariant violation),
// plus a typed wrapper that lets callers attach diagnostics (ask id,
// provider id) to an Unavailable outcome without losing the ability to
// classify the error with errors.Is.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Compare with errors.Is, never with ==, since most call
// sites wrap these with fmt.Errorf("...: %w", ...) to add context.
var (
	// ErrInvalid marks missing mandatory fields, unknown operation tags,
	// or malformed identifiers. No mutation is applied when this is returned.
	ErrInvalid = errors.New("invalid input")
	// ErrNotFound marks a lookup that matched no record.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable marks a record that exists but whose Ask could not
	// be delivered or timed out.
	ErrUnavailable = errors.New("unavailable")
	// ErrInternal marks an invariant violation: index inconsistency,
	// duplicate in-flight ask id. Never expected in a correct build.
	ErrInternal = errors.New("internal invariant violation")
)

// UnavailableError carries the diagnostics an Unavailable outcome must
// surface: the timing-out ask id and the provider id.
type UnavailableError struct {
	AskID      string
	ProviderID string
	Err        error // underlying cause (timeout, transport error); may be nil
}

func (e *UnavailableError) Error() string {
	msg := "unavailable: provider=" + e.ProviderID + " ask=" + e.AskID
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// NewUnavailable builds an UnavailableError for the given ask/provider pair.
func NewUnavailable(askID, providerID string, cause error) *UnavailableError {
	return &UnavailableError{AskID: askID, ProviderID: providerID, Err: cause}
}

// Wrap annotates kind (one of the sentinels above) with msg, preserving
// errors.Is(result, kind). Call sites use this instead of fmt.Errorf
// directly so every wrapped error carries one of the four kinds.
func Wrap(kind error, msg string) error {
	return fmt.Errorf("%s: %w", msg, kind)
}

// AskIDAndCause unpacks err looking for a *UnavailableError, returning the
// ask id it carries and its underlying cause. Callers that already hold an
// UnavailableError (typically returned by rpc.Correlator.Call) use this to
// re-surface its diagnostics instead of wrapping it a second time under a
// blank ask id. If err is not an UnavailableError, askID is "" and cause is
// err itself.
func AskIDAndCause(err error) (askID string, cause error) {
	var unavailable *UnavailableError
	if errors.As(err, &unavailable) {
		return unavailable.AskID, unavailable.Err
	}
	return "", err
}
