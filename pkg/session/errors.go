package session

import "errors"

var (
	// ErrCredential covers keypair parsing, JWT signing, or a missing
	// credential for the declared auth type.
	ErrCredential = errors.New("session: credential error")

	// ErrAuthFailed wraps a server-rejected login or renew.
	ErrAuthFailed = errors.New("session: authentication failed")
)

// AuthFailedError carries the server's own code/message for a rejected
// login or renew.
type AuthFailedError struct {
	Code    string
	Message string
}

func (e *AuthFailedError) Error() string {
	return "session: auth failed: " + e.Code + ": " + e.Message
}

func (e *AuthFailedError) Unwrap() error { return ErrAuthFailed }
