package password

import "errors"

// Policy failure kinds. The messages are stable codes and double as API error codes.
var (
	ErrPasswordTooShort   = errors.New("pass_too_short")
	ErrPasswordTooLong    = errors.New("pass_too_long")
	ErrNoSpecialChars     = errors.New("pass_no_special_chars")
	ErrNoNumbers          = errors.New("pass_no_numbers")
	ErrNoSmallChars       = errors.New("pass_no_small_chars")
	ErrNoBigChars         = errors.New("pass_no_big_chars")
	ErrWeakPassword       = errors.New("pass_too_weak")
	ErrInvalidPasswordUTF = errors.New("pass_type_error")
)

// ErrInvalidHash is returned by Verify for malformed or unsupported stored hashes.
var ErrInvalidHash = errors.New("invalid password hash")

// IsPolicyError reports whether err is one of the policy failure kinds.
func IsPolicyError(err error) bool {
	for _, k := range []error{
		ErrPasswordTooShort,
		ErrPasswordTooLong,
		ErrNoSpecialChars,
		ErrNoNumbers,
		ErrNoSmallChars,
		ErrNoBigChars,
		ErrWeakPassword,
		ErrInvalidPasswordUTF,
	} {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}
