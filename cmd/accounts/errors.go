package accounts

import (
	"errors"
	"fmt"

	"filefly/cmd/security/password"
)

// OpError is a typed operation error with a stable Op + Kind contract for callers/tests.
//   - Kind is one of the sentinel kinds in this package or a password policy kind.
//   - Err carries the underlying cause for storage failures and is never shown to clients.
//   - Msg may include human-readable context; it never includes secrets.
type OpError struct {
	Op   string
	Kind error
	Msg  string
	Err  error
}

func (e OpError) Error() string {
	s := fmt.Sprintf("%s: %v", e.Op, e.Kind)
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func storageErr(op string, err error) error {
	return OpError{Op: op, Kind: ErrStorage, Err: err}
}

// KindOf returns the stable code of err ("user_exists", "pass_too_short", ...),
// or "" when err does not carry a kind.
func KindOf(err error) string {
	var oe OpError
	if errors.As(err, &oe) && oe.Kind != nil {
		return oe.Kind.Error()
	}
	return ""
}

// IsNotFound reports whether err represents ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation reports whether err is a rejected-input kind from Create
// (name checks or password policy), as opposed to a conflict or storage failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrTypeCheckFailed) ||
		errors.Is(err, ErrNameTooShort) ||
		errors.Is(err, ErrNameTooLong) ||
		password.IsPolicyError(err)
}
