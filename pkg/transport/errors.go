package transport

import (
	"errors"
	"fmt"
)

// Sentinel error kinds, one per failure mode; call sites wrap them with
// fmt.Errorf("%w: ...") for detail.
var (
	// ErrTransport covers connection errors, DNS failures, TLS failures, and
	// exhausting the retry budget on a transient status.
	ErrTransport = errors.New("transport error")

	// ErrInvalidAccountIdentifier is returned for HTTP 403 on auth or query
	// endpoints.
	ErrInvalidAccountIdentifier = errors.New("invalid account identifier")

	// ErrUnexpectedResponse covers a non-2xx status, an unparseable 2xx body,
	// or a body that parsed into a variant disallowed for the endpoint.
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// UnexpectedResponseError carries the raw response body so callers can
// inspect server diagnostics instead of having them silently swallowed.
type UnexpectedResponseError struct {
	StatusCode int
	Body       string
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected response (status %d): %s", e.StatusCode, e.Body)
}

func (e *UnexpectedResponseError) Unwrap() error { return ErrUnexpectedResponse }
