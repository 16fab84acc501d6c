package password

import (
	"errors"
	"testing"
)

func TestValidate_SpecialCharacterPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy = Policy{MinLength: 10, MaxLength: 256, UseSpecialCharacters: true}

	cases := []struct {
		in   string
		want error
	}{
		{in: "short", want: ErrPasswordTooShort},
		{in: "longenoughbutplain", want: ErrNoSpecialChars},
		{in: "longenough_underscore", want: ErrNoSpecialChars},
		{in: "longenough!1Aa", want: nil},
	}

	for _, tc := range cases {
		if err := cfg.Validate(tc.in); !errors.Is(err, tc.want) {
			t.Fatalf("Validate(%q)=%v want=%v", tc.in, err, tc.want)
		}
	}
}

func TestValidate_RuleOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy = Policy{
		MinLength:            10,
		MaxLength:            16,
		UseSpecialCharacters: true,
		UseNumbers:           true,
		UseMixedCase:         true,
	}

	cases := []struct {
		in   string
		want error
	}{
		{in: "abc", want: ErrPasswordTooShort},
		{in: "this password is definitely too long", want: ErrPasswordTooLong},
		{in: "abcdefghijk", want: ErrNoSpecialChars},
		{in: "abcdefghij!", want: ErrNoNumbers},
		{in: "ABCDEFGHI!1", want: ErrNoSmallChars},
		{in: "abcdefghi!1", want: ErrNoBigChars},
		{in: "Abcdefghi!1", want: nil},
		{in: "Ünïcödé!1aB", want: nil},
		{in: "bad\xffutf8!1aB", want: ErrInvalidPasswordUTF},
	}

	for _, tc := range cases {
		if err := cfg.Validate(tc.in); !errors.Is(err, tc.want) {
			t.Fatalf("Validate(%q)=%v want=%v", tc.in, err, tc.want)
		}
	}
}

func TestPolicy_RejectVeryWeak(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy = Policy{MinLength: 5, MaxLength: 64, RejectVeryWeak: true}

	if err := cfg.Validate("password"); err != ErrWeakPassword {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if err := cfg.Validate("11111111"); err != ErrWeakPassword {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if err := cfg.Validate("a-very-ok-pass"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestIsPolicyError(t *testing.T) {
	if !IsPolicyError(ErrNoBigChars) {
		t.Fatalf("expected policy error")
	}
	if IsPolicyError(ErrInvalidHash) {
		t.Fatalf("ErrInvalidHash is not a policy error")
	}
}
