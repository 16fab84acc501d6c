package password

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validate checks password policy. Checks run in a fixed order and the first
// failure wins, so callers always see the same kind for the same input.
func (c Config) Validate(password string) error {
	if !utf8.ValidString(password) {
		return ErrInvalidPasswordUTF
	}

	// Count characters (runes), not bytes, to be user-friendly.
	n := utf8.RuneCountInString(password)

	if n < c.Policy.MinLength {
		return ErrPasswordTooShort
	}
	if c.Policy.MaxLength > 0 && n > c.Policy.MaxLength {
		return ErrPasswordTooLong
	}

	var special, digit, lower, upper bool
	for _, r := range password {
		switch {
		case r >= '0' && r <= '9':
			digit = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r == '_':
		default:
			// Anything outside [A-Za-z0-9_] counts, as with a regexp \W.
			special = true
		}
	}

	if c.Policy.UseSpecialCharacters && !special {
		return ErrNoSpecialChars
	}
	if c.Policy.UseNumbers && !digit {
		return ErrNoNumbers
	}
	if c.Policy.UseMixedCase && !lower {
		return ErrNoSmallChars
	}
	if c.Policy.UseMixedCase && !upper {
		return ErrNoBigChars
	}

	if c.Policy.RejectVeryWeak && looksVeryWeak(password) {
		return ErrWeakPassword
	}

	return nil
}

// looksVeryWeak is intentionally minimal and conservative.
func looksVeryWeak(pw string) bool {
	s := strings.TrimSpace(pw)
	if s == "" {
		return true
	}

	// Reject if all same char.
	first, _ := utf8.DecodeRuneInString(s)
	if strings.Trim(s, string(first)) == "" {
		return true
	}

	// Reject if it's only digits and short-ish (common PIN-like).
	if strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 && utf8.RuneCountInString(s) < 12 {
		return true
	}

	switch strings.ToLower(s) {
	case "password", "password123", "123456", "123456789", "qwerty", "qwerty123", "11111111", "admin":
		return true
	}

	return false
}
