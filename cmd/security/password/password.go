package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	argon2Version = 19 // argon2.Version is 0x13 (19)
	argon2Prefix  = "$argon2id$"
)

// Hash hashes a password with the configured algorithm and returns an encoded hash string.
// It does not apply the policy; callers validate first when the input is user supplied.
//
// Formats:
//
//	$argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<hash_b64>
//	$2a$<cost>$<bcrypt payload>
func (c Config) Hash(password string) (string, error) {
	switch c.Algorithm {
	case AlgorithmBcrypt:
		h, err := bcrypt.GenerateFromPassword([]byte(password), c.BcryptCost)
		if err != nil {
			if errors.Is(err, bcrypt.ErrPasswordTooLong) {
				return "", ErrPasswordTooLong
			}
			return "", fmt.Errorf("bcrypt: %w", err)
		}
		return string(h), nil
	case AlgorithmArgon2id, "":
		return c.hashArgon2id(password)
	default:
		return "", fmt.Errorf("password: unknown algorithm %q", c.Algorithm)
	}
}

func (c Config) hashArgon2id(password string) (string, error) {
	salt := make([]byte, c.Argon2.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		c.Argon2.Iterations,
		c.Argon2.MemoryKiB,
		c.Argon2.Parallelism,
		c.Argon2.KeyLength,
	)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version,
		c.Argon2.MemoryKiB,
		c.Argon2.Iterations,
		c.Argon2.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	), nil
}

// Verify checks whether password matches the given encoded hash.
// Returns (true, nil) for a match, (false, nil) for mismatch,
// and (false, ErrInvalidHash) for malformed/unsupported hashes.
//
// Verification is driven by the stored hash, not by c.Algorithm, so switching
// algorithms keeps existing accounts usable.
func (c Config) Verify(encodedHash, password string) (bool, error) {
	if strings.HasPrefix(encodedHash, argon2Prefix) {
		return c.verifyArgon2id(encodedHash, password)
	}
	if isBcryptHash(encodedHash) {
		err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, ErrInvalidHash
		}
	}
	return false, ErrInvalidHash
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

func (c Config) verifyArgon2id(encodedHash, password string) (bool, error) {
	params, salt, expected, err := decode(encodedHash)
	if err != nil {
		return false, err
	}

	// Refuse attacker-inflated parameters.
	if !withinReasonableBounds(params, c.Argon2) {
		return false, ErrInvalidHash
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		params.Iterations,
		params.MemoryKiB,
		params.Parallelism,
		uint32(len(expected)), // #nosec G115 -- bounded by decode().
	)

	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}

func withinReasonableBounds(got Argon2idParams, limits Argon2idParams) bool {
	// Older/smaller settings are fine; wildly larger ones are not.
	// The floor keeps hashes verifiable after switching to bcrypt (zero argon2 limits).
	maxMem := max(limits.MemoryKiB, 64*1024) * 2
	maxIter := max(limits.Iterations, 3) * 2
	maxPar := uint32(max(limits.Parallelism, 4)) * 2

	if got.MemoryKiB > maxMem || got.Iterations > maxIter || uint32(got.Parallelism) > maxPar {
		return false
	}
	if got.SaltLength < 8 || got.SaltLength > 64 {
		return false
	}
	if got.KeyLength < 16 || got.KeyLength > 128 {
		return false
	}
	return true
}

// decode parses the encoded hash and returns params, salt and expected key.
func decode(encoded string) (Argon2idParams, []byte, []byte, error) {
	// $argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	if parts[2] != "v=19" {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	var mem, it, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &it, &par); err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	if mem == 0 || it == 0 || par == 0 || par > 255 {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	hash, err := b64.DecodeString(parts[5])
	if err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	params := Argon2idParams{
		MemoryKiB:   mem,
		Iterations:  it,
		Parallelism: uint8(par),        // #nosec G115 -- checked <= 255 above.
		SaltLength:  uint32(len(salt)), // #nosec G115 -- decoded from a bounded string.
		KeyLength:   uint32(len(hash)), // #nosec G115 -- decoded from a bounded string.
	}

	return params, salt, hash, nil
}
