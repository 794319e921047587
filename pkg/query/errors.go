package query

import (
	"errors"
	"fmt"
)

var (
	// ErrBrokenResponse is returned when a tabular reply carries neither a
	// JSON rowset nor a base64 rowset.
	ErrBrokenResponse = errors.New("query: broken response: no rowset present")

	// ErrDecode covers base64 or IPC stream decoding failures.
	ErrDecode = errors.New("query: decode error")

	// ErrUnimplemented marks a stage kind this engine does not support.
	ErrUnimplemented = errors.New("query: unimplemented")
)

// ApiError is a server-acknowledged statement-level failure.
type ApiError struct {
	Code    string
	Message string
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("query: api error %s: %s", e.Code, e.Message)
}
