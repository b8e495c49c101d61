package httpapi

import (
	"errors"
	"net/http"

	twinerrors "github.com/edgetwin/runtime/pkg/errors"
)

// statusFor classifies err per the runtime's error taxonomy into an HTTP
// status code: validation failures map to 400 and missing resources to
// 404 rather than always 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, twinerrors.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, twinerrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, twinerrors.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
