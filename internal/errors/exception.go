package errors

import (
	"errors"
	"net/http"
)

// Kind is the closed set of failure classes the API distinguishes.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

const internalMessage = "An unexpected error occurred. Please try again later."

type Exception struct {
	Kind       Kind
	Message    string
	StatusCode int
	Err        error
}

func (e *Exception) Error() string {
	if e.Err != nil && e.Kind == KindInternal {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Exception) Unwrap() error {
	return e.Err
}

// Validation reports a malformed payload. The message of err is shown to
// the caller.
func Validation(err error) *Exception {
	return &Exception{
		Kind:       KindValidation,
		Message:    "Validation error: " + err.Error(),
		StatusCode: http.StatusBadRequest,
		Err:        err,
	}
}

// Internal hides err behind a generic message; the cause stays reachable
// through Unwrap for logging.
func Internal(err error) *Exception {
	return &Exception{
		Kind:       KindInternal,
		Message:    internalMessage,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// From returns err as an *Exception, wrapping unknown errors as Internal.
func From(err error) *Exception {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

func StatusCode(err error) int {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
