package session

import "errors"

// Error kinds. Messages are stable codes and double as API error codes.
var (
	// ErrBadNameOrPass covers both an unknown account and a wrong password.
	ErrBadNameOrPass = errors.New("bad_name_or_pass")

	// ErrUnknown hides infrastructure failures; details go to the log.
	ErrUnknown = errors.New("unknown_error")

	// ErrSessionNotFound is returned by Renew and Extend for missing or expired tokens.
	ErrSessionNotFound = errors.New("session_not_found")

	// ErrUnknownSession is returned by Elevate for missing or expired tokens.
	ErrUnknownSession = errors.New("unknown_session")

	// ErrRootRequired is returned when a non-root session asks for elevation.
	ErrRootRequired = errors.New("root_required")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")

	errTokenExhausted = errors.New("session token attempts exhausted")
)
