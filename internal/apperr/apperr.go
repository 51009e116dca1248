package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors for the API surface. Handlers map these to HTTP status
// codes in one place; stores and services only ever return (wrapped)
// sentinels, never raw driver errors.
var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrDuplicate         = errors.New("duplicate key")
	ErrAlreadyAssigned   = errors.New("already assigned")
	ErrNoLinkedAccount   = errors.New("no linked account")
	ErrMalformedEnvelope = errors.New("malformed envelope")
	ErrDecryptFailed     = errors.New("decryption failed")
	ErrInternal          = errors.New("internal error")
)

// UpstreamError reports a failed call to the MT5 bridge. Status is the
// upstream HTTP status, or 0 when the call never got a response.
type UpstreamError struct {
	Status int
	Op     string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("bridge %s: upstream status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("bridge %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Validation wraps ErrValidation with a field-level message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
