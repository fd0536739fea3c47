package apperr

import (
	"errors"
	"net/http"
)

// Error kinds used across the engine. Services wrap these with
// fmt.Errorf("%w: ...") so handlers can map them with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// HTTPStatus maps an error to the status code the API contract requires:
// validation, conflict, and transition errors are all client mistakes (400),
// forbidden is 403, not-found is 404, everything else is 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict), errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidTransition):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message for an error. Internal failures
// are collapsed to a generic message so no store detail leaks.
func Message(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
