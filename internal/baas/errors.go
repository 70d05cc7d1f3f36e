package baas

import (
	"errors"
	"fmt"
)

// Sentinel errors for BaaS API operations.
var (
	ErrNotFound     = errors.New("baas: not found")
	ErrConflict     = errors.New("baas: conflict")
	ErrUnauthorized = errors.New("baas: unauthorized")
	ErrRateLimited  = errors.New("baas: rate limited by server")
	ErrBadRequest   = errors.New("baas: bad request")
	ErrServer       = errors.New("baas: server error")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op      string // Operation: "select curations", "upload object", ...
	Status  int    // HTTP status, 0 for transport failures
	Message string // Server-provided message, if any
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("baas %s [%d]: %v: %s", e.Op, e.Status, e.Err, e.Message)
	}
	if e.Status != 0 {
		return fmt.Sprintf("baas %s [%d]: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("baas %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError creates an Error with context.
func wrapError(op string, status int, message string, err error) error {
	return &Error{
		Op:      op,
		Status:  status,
		Message: message,
		Err:     err,
	}
}
