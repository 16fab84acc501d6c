package accounts

import "errors"

// Sentinel error kinds (stable for errors.Is and for mapping to API error codes).
var (
	ErrUserExists      = errors.New("user_exists")
	ErrTypeCheckFailed = errors.New("type_check_failed")
	ErrNameTooShort    = errors.New("name_too_short")
	ErrNameTooLong     = errors.New("name_too_long")

	ErrNotFound    = errors.New("not_found")
	ErrBadPassword = errors.New("bad_password")

	// ErrIdentifierExhausted means every identifier draw collided with an existing account.
	ErrIdentifierExhausted = errors.New("identifier_exhausted")
	// ErrStorage wraps backend I/O and decoding failures.
	ErrStorage = errors.New("storage_error")
)
