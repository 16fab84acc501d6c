package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

const (
	// DefaultBytes is the session token entropy in bytes.
	DefaultBytes = 64

	redactKeep = 10
)

// ErrEntropy is returned when the random source fails or returns short reads.
var ErrEntropy = errors.New("token entropy source failed")

// Source is the entropy source for New. Tests may replace it per Generator.
type Source func(b []byte) (int, error)

// Generator produces opaque session tokens.
type Generator struct {
	Bytes  int
	Source Source
}

// New returns a token of g.Bytes random bytes, base64url-encoded without padding.
// The output is safe to place in a cookie value and carries no structure.
func (g Generator) New() (string, error) {
	n := g.Bytes
	if n <= 0 {
		n = DefaultBytes
	}
	src := g.Source
	if src == nil {
		src = func(b []byte) (int, error) { return io.ReadFull(rand.Reader, b) }
	}

	b := make([]byte, n)
	got, err := src(b)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEntropy, err)
	}
	if got != n {
		return "", ErrEntropy
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// New returns a DefaultBytes token from crypto/rand.
func New() (string, error) { return Generator{}.New() }

// Redact keeps the first and last few characters of tok for log correlation.
func Redact(tok string) string {
	if len(tok) <= 2*redactKeep {
		return "..."
	}
	return tok[:redactKeep] + "..." + tok[len(tok)-redactKeep:]
}

// Fingerprint returns a short SHA-256 hex digest of tok, suitable as a metrics-safe
// or log-safe handle that cannot be replayed as a cookie.
func Fingerprint(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:8])
}
