package services

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an order, fee or student does not exist.
var ErrNotFound = errors.New("not found")

// ErrUnauthenticated is returned when a session token cannot be resolved to a
// principal.
var ErrUnauthenticated = errors.New("unauthenticated")

// ValidationError reports caller input that failed a business rule, such as a
// payment amount exceeding the outstanding due amount.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// GatewayError wraps a failed call to the payment gateway. Gateway reads are
// safe to retry, so callers may treat this class of error as retryable.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps a storage failure. The current call is lost, but a
// later retry is safe because every write is either guarded or recomputed.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the error came from the gateway and the caller
// may retry the same call.
func IsRetryable(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge)
}
