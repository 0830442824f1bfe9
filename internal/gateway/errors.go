package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMissingParam is returned before any request is made when a required
// path or body identifier is absent.
var ErrMissingParam = errors.New("missing required parameter")

// NetworkError means no response reached the client: DNS, connection,
// timeout or a canceled context.
type NetworkError struct {
	operation string
	err       error
}

// NewNetworkError returns a NetworkError for operation wrapping err.
func NewNetworkError(operation string, err error) *NetworkError {
	return &NetworkError{operation: operation, err: err}
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network: %v", e.operation, e.err)
}

func (e *NetworkError) Unwrap() error { return e.err }

// Operation returns a short description of the API call that failed.
func (e *NetworkError) Operation() string { return e.operation }

// ServerError is a response with a non-2xx status.
// Callers should prefer the predicate functions (IsNotFound, IsUnauthorized, etc.)
// to inspect errors rather than asserting on this type directly.
type ServerError struct {
	operation  string
	statusCode int
	detail     string
}

// NewServerError returns a ServerError for operation. An empty detail means
// the backend sent none.
func NewServerError(operation string, statusCode int, detail string) *ServerError {
	return &ServerError{operation: operation, statusCode: statusCode, detail: detail}
}

func (e *ServerError) Error() string {
	if e.detail != "" {
		return fmt.Sprintf("%s: HTTP %d: %s", e.operation, e.statusCode, e.detail)
	}
	return fmt.Sprintf("%s: HTTP %d", e.operation, e.statusCode)
}

// StatusCode returns the HTTP status code from the response.
func (e *ServerError) StatusCode() int { return e.statusCode }

// Detail returns the backend's "detail" message, or "" when it sent none.
func (e *ServerError) Detail() string { return e.detail }

// Operation returns a short description of the API call that failed.
func (e *ServerError) Operation() string { return e.operation }

// IsNetwork reports whether err is, or wraps, a *NetworkError.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsNotFound reports whether err is a server error with HTTP 404 status.
func IsNotFound(err error) bool { return HasStatusCode(err, http.StatusNotFound) }

// IsUnauthorized reports whether err is a server error with HTTP 401 status.
func IsUnauthorized(err error) bool { return HasStatusCode(err, http.StatusUnauthorized) }

// IsForbidden reports whether err is a server error with HTTP 403 status.
func IsForbidden(err error) bool { return HasStatusCode(err, http.StatusForbidden) }

// HasStatusCode reports whether err is a server error whose HTTP status code matches.
func HasStatusCode(err error, code int) bool {
	var srvErr *ServerError
	return errors.As(err, &srvErr) && srvErr.statusCode == code
}
