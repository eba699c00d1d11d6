package auth

import "errors"

var (
	// ErrAuthentication is returned by Login for any rejected credential. The
	// underlying cause is deliberately not exposed.
	ErrAuthentication = errors.New("invalid username or password")
	// ErrRegistration wraps failures of the account creation call.
	ErrRegistration = errors.New("registration failed")
)

// SessionError reports a failed logout/token invalidation. Local session state
// has already been cleared when it is returned.
type SessionError struct {
	Err error
}

func (e *SessionError) Error() string {
	return "invalid token: " + e.Err.Error()
}

func (e *SessionError) Unwrap() error { return e.Err }

// InfrastructureError reports that the backend could not answer the identity
// check. It is fatal at startup: an unreachable backend is not treated as
// "logged out".
type InfrastructureError struct {
	Err error
}

func (e *InfrastructureError) Error() string {
	return "session check failed: " + e.Err.Error()
}

func (e *InfrastructureError) Unwrap() error { return e.Err }
