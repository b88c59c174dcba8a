// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	// ErrNotAuthenticated means the session has no access token; operations
	// fail fast without issuing a network call.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrAuthExpired means the single refresh-and-retry cycle was exhausted
	// and the caller must log in again.
	ErrAuthExpired = errors.New("authentication expired")

	ErrNoRefreshToken     = errors.New("no refresh token in session")
	ErrInstrumentNotFound = errors.New("instrument not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrAlertNotFound      = errors.New("alert not found")
	ErrAlertTerminal      = errors.New("alert already in a terminal state")
	ErrAlertsStopped      = errors.New("alert intake is stopped")
	ErrConfigInvalid      = errors.New("invalid configuration")
)

// AuthError represents a rejected login or token refresh exchange.
type AuthError struct {
	Op     string // "login" | "refresh"
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError creates a new AuthError.
func NewAuthError(op, reason string, err error) *AuthError {
	return &AuthError{Op: op, Reason: reason, Err: err}
}

// TransportError represents a connection-level or timeout failure. It is
// never silently retried beyond the single auth-triggered retry.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPError represents a non-2xx HTTP status from the upstream API.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// IsUnauthorized reports whether the status signals an expired or invalid
// access token.
func (e *HTTPError) IsUnauthorized() bool {
	return e.StatusCode == 401
}

// OrderRejectedError represents an upstream business rejection embedded in a
// 2xx envelope (bad symbol, insufficient margin, ...). The broker's message
// is surfaced verbatim, not classified further.
type OrderRejectedError struct {
	Op      string
	Message string
}

func (e *OrderRejectedError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Op, e.Message)
}

// NewOrderRejectedError creates a new OrderRejectedError.
func NewOrderRejectedError(op, message string) *OrderRejectedError {
	return &OrderRejectedError{Op: op, Message: message}
}

// IsAuthFailure reports whether err signals a missing, expired or rejected
// broker authentication rather than a domain failure.
func IsAuthFailure(err error) bool {
	var authErr *AuthError
	return Is(err, ErrNotAuthenticated) ||
		Is(err, ErrAuthExpired) ||
		As(err, &authErr)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
