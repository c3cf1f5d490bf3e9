package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Authorization-flow errors. Callers distinguish "the user did not
	// complete the flow in time" from "tampering suspected" from plain
	// transport failure.

	// ErrAuthorizationTimeout indicates no callback arrived before the
	// authorization deadline.
	ErrAuthorizationTimeout = errors.New("authorization timed out")

	// ErrStateMismatch indicates the callback carried a state parameter
	// that does not match the one generated for this session.
	ErrStateMismatch = errors.New("oauth state mismatch")

	// ErrCallbackFailed indicates the provider redirected back with an
	// error instead of an authorization code.
	ErrCallbackFailed = errors.New("authorization callback failed")

	// ErrTokenRefreshFailed indicates token refresh operation failed.
	ErrTokenRefreshFailed = errors.New("token refresh failed")

	// ErrAuthRequired indicates an action needs authentication but no
	// usable credential is stored.
	ErrAuthRequired = errors.New("authentication required")
)

// MissingFieldError is a configuration error: a platform-required
// credential field is empty. It is raised before any network call.
type MissingFieldError struct {
	Platform string
	Field    string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing required credential field %q (run `agoras %s authorize` first)",
		e.Platform, e.Field, e.Platform)
}

// IsMissingField reports whether err is a MissingFieldError.
func IsMissingField(err error) bool {
	var m *MissingFieldError
	return errors.As(err, &m)
}

// CapabilityError indicates an action a platform intrinsically does not
// support. It is raised synchronously, independent of auth state.
type CapabilityError struct {
	Platform string
	Action   string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s does not support the %q action", e.Platform, e.Action)
}

// IsCapability reports whether err is a CapabilityError.
func IsCapability(err error) bool {
	var c *CapabilityError
	return errors.As(err, &c)
}
