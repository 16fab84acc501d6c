package password

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Algorithm selects the hash function used for new hashes.
// Verification always dispatches on the stored hash prefix.
type Algorithm string

const (
	AlgorithmArgon2id Algorithm = "argon2id"
	AlgorithmBcrypt   Algorithm = "bcrypt"
)

// Argon2idParams controls Argon2id hashing cost.
// MemoryKiB is in KiB as required by argon2.IDKey.
type Argon2idParams struct {
	MemoryKiB   uint32 `yaml:"memory_kib"`
	Iterations  uint32 `yaml:"iterations"`
	Parallelism uint8  `yaml:"parallelism"`
	SaltLength  uint32 `yaml:"salt_length"`
	KeyLength   uint32 `yaml:"key_length"`
}

// Policy controls password validation for newly created accounts.
type Policy struct {
	MinLength int `yaml:"min_length"`
	MaxLength int `yaml:"max_length"`

	UseSpecialCharacters bool `yaml:"use_special_characters"`
	UseNumbers           bool `yaml:"use_numbers"`
	// UseMixedCase requires at least one lower-case and one upper-case letter.
	UseMixedCase bool `yaml:"use_mixed_case"`

	// If true, enable an extra, minimal weak-pattern rejection.
	RejectVeryWeak bool `yaml:"reject_very_weak"`
}

// Config is the single configuration surface for this package.
type Config struct {
	Algorithm  Algorithm      `yaml:"algorithm"`
	Argon2     Argon2idParams `yaml:"argon2"`
	BcryptCost int            `yaml:"bcrypt_cost"`
	Policy     Policy         `yaml:"policy"`
}

// DefaultConfig returns a strong baseline for interactive logins.
func DefaultConfig() Config {
	// Clamp to [1..4] to keep resource usage predictable in containers.
	threads := runtime.NumCPU()
	if threads <= 0 {
		threads = 1
	}
	if threads > 4 {
		threads = 4
	}

	return Config{
		Algorithm: AlgorithmArgon2id,
		Argon2: Argon2idParams{
			MemoryKiB:   64 * 1024, // 64 MiB
			Iterations:  3,
			Parallelism: uint8(threads), // #nosec G115 -- clamped to [1..4] above.
			SaltLength:  16,
			KeyLength:   32,
		},
		BcryptCost: 12,
		Policy: Policy{
			MinLength:            10,
			MaxLength:            256,
			UseSpecialCharacters: true,
			UseNumbers:           true,
			UseMixedCase:         true,
		},
	}
}

// ApplyEnv overlays environment variables onto cfg.
//
// Env surface:
//   - FILEFLY_PASSWORD_ALGORITHM (argon2id|bcrypt)
//   - FILEFLY_PASSWORD_MIN_LEN
//   - FILEFLY_PASSWORD_MAX_LEN
//   - FILEFLY_PASSWORD_SPECIAL (true/false)
//   - FILEFLY_PASSWORD_NUMBERS (true/false)
//   - FILEFLY_PASSWORD_MIXED_CASE (true/false)
//   - FILEFLY_PASSWORD_REJECT_VERY_WEAK (true/false)
//   - FILEFLY_ARGON2_MEMORY_KIB
//   - FILEFLY_ARGON2_ITERATIONS
//   - FILEFLY_ARGON2_PARALLELISM
//   - FILEFLY_BCRYPT_COST
func ApplyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("FILEFLY_PASSWORD_ALGORITHM"); ok {
		cfg.Algorithm = Algorithm(strings.ToLower(strings.TrimSpace(v)))
	}

	ints := []struct {
		key      string
		dst      *int
		min, max int
	}{
		{"FILEFLY_PASSWORD_MIN_LEN", &cfg.Policy.MinLength, 1, 1024},
		{"FILEFLY_PASSWORD_MAX_LEN", &cfg.Policy.MaxLength, 1, 4096},
		{"FILEFLY_BCRYPT_COST", &cfg.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost},
	}
	for _, e := range ints {
		v, ok := os.LookupEnv(e.key)
		if !ok {
			continue
		}
		n, err := atoiPositiveInt(v, e.min, e.max)
		if err != nil {
			return fmt.Errorf("%s: %w", e.key, err)
		}
		*e.dst = n
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"FILEFLY_PASSWORD_SPECIAL", &cfg.Policy.UseSpecialCharacters},
		{"FILEFLY_PASSWORD_NUMBERS", &cfg.Policy.UseNumbers},
		{"FILEFLY_PASSWORD_MIXED_CASE", &cfg.Policy.UseMixedCase},
		{"FILEFLY_PASSWORD_REJECT_VERY_WEAK", &cfg.Policy.RejectVeryWeak},
	}
	for _, e := range bools {
		v, ok := os.LookupEnv(e.key)
		if !ok {
			continue
		}
		b, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", e.key, err)
		}
		*e.dst = b
	}

	if v, ok := os.LookupEnv("FILEFLY_ARGON2_MEMORY_KIB"); ok {
		u, err := atou32(v, 8*1024, 1024*1024) // 8 MiB .. 1 GiB
		if err != nil {
			return fmt.Errorf("FILEFLY_ARGON2_MEMORY_KIB: %w", err)
		}
		cfg.Argon2.MemoryKiB = u
	}

	if v, ok := os.LookupEnv("FILEFLY_ARGON2_ITERATIONS"); ok {
		u, err := atou32(v, 1, 20)
		if err != nil {
			return fmt.Errorf("FILEFLY_ARGON2_ITERATIONS: %w", err)
		}
		cfg.Argon2.Iterations = u
	}

	if v, ok := os.LookupEnv("FILEFLY_ARGON2_PARALLELISM"); ok {
		u, err := atou32(v, 1, 64)
		if err != nil {
			return fmt.Errorf("FILEFLY_ARGON2_PARALLELISM: %w", err)
		}
		p, err := u32ToU8(u)
		if err != nil {
			return fmt.Errorf("FILEFLY_ARGON2_PARALLELISM: %w", err)
		}
		cfg.Argon2.Parallelism = p
	}

	return nil
}

// Check reports whether the configuration is usable.
func (c Config) Check() error {
	switch c.Algorithm {
	case AlgorithmArgon2id:
		p := c.Argon2
		if p.MemoryKiB == 0 || p.Iterations == 0 || p.Parallelism == 0 {
			return fmt.Errorf("password: argon2 params must be positive: %+v", p)
		}
		if p.SaltLength < 8 || p.SaltLength > 64 {
			return fmt.Errorf("password: argon2 salt_length out of range [8..64]: %d", p.SaltLength)
		}
		if p.KeyLength < 16 || p.KeyLength > 128 {
			return fmt.Errorf("password: argon2 key_length out of range [16..128]: %d", p.KeyLength)
		}
	case AlgorithmBcrypt:
		// Cost below 10 is too cheap for stored credentials.
		if c.BcryptCost < 10 || c.BcryptCost > bcrypt.MaxCost {
			return fmt.Errorf("password: bcrypt_cost out of range [10..%d]: %d", bcrypt.MaxCost, c.BcryptCost)
		}
	default:
		return fmt.Errorf("password: unknown algorithm %q", c.Algorithm)
	}

	if c.Policy.MinLength <= 0 {
		return fmt.Errorf("password: policy min_length must be positive")
	}
	if c.Policy.MinLength > c.Policy.MaxLength {
		return fmt.Errorf(
			"password: policy invalid: min_length(%d) > max_length(%d)",
			c.Policy.MinLength,
			c.Policy.MaxLength,
		)
	}
	return nil
}

func atoiPositiveInt(s string, minVal, maxVal int) (int, error) {
	s = strings.TrimSpace(s)
	i64, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an integer")
	}

	i := int(i64)
	if i < minVal || i > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return i, nil
}

func atou32(s string, minVal, maxVal uint32) (uint32, error) {
	s = strings.TrimSpace(s)
	u64, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an unsigned integer")
	}

	u := uint32(u64)
	if u < minVal || u > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return u, nil
}

func u32ToU8(u uint32) (uint8, error) {
	if u > math.MaxUint8 {
		return 0, fmt.Errorf("out of range [0..%d]", math.MaxUint8)
	}
	return uint8(u), nil
}

// parseBool accepts yes/no alongside the usual forms.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean")
	}
}
