package session

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"filefly/cmd/security/token"
)

// Config defines runtime configuration for the session subsystem.
//
// Short, Long and Elevated form the duration table: a session of a given kind
// expires once that much time has passed since its last update.
type Config struct {
	Short    time.Duration `yaml:"short"`
	Long     time.Duration `yaml:"long"`
	Elevated time.Duration `yaml:"elevated"`

	// SweepInterval is the period of the background expiry sweep.
	SweepInterval time.Duration `yaml:"sweep_interval"`

	// TokenBytes is the number of random bytes per session token.
	TokenBytes int `yaml:"token_bytes"`
}

// DefaultConfig returns the default duration table.
func DefaultConfig() Config {
	return Config{
		Short:         30 * time.Minute,
		Long:          30 * 24 * time.Hour,
		Elevated:      10 * time.Minute,
		SweepInterval: 10 * time.Second,
		TokenBytes:    token.DefaultBytes,
	}
}

// DurationFor returns the expiration window for kind.
// Unknown kinds get the shortest window.
func (c Config) DurationFor(kind Kind) time.Duration {
	switch kind {
	case KindLong:
		return c.Long
	case KindShort:
		return c.Short
	default:
		return c.Elevated
	}
}

// ApplyEnv overlays environment variables onto cfg.
//
// Durations must be valid Go duration strings:
//   - FILEFLY_SESSION_SHORT
//   - FILEFLY_SESSION_LONG
//   - FILEFLY_SESSION_ELEVATED
//   - FILEFLY_SESSION_SWEEP_INTERVAL
//   - FILEFLY_SESSION_TOKEN_BYTES
//
// Returns ErrConfig if a value does not parse.
func ApplyEnv(cfg *Config) error {
	for _, e := range []struct {
		key string
		dst *time.Duration
	}{
		{"FILEFLY_SESSION_SHORT", &cfg.Short},
		{"FILEFLY_SESSION_LONG", &cfg.Long},
		{"FILEFLY_SESSION_ELEVATED", &cfg.Elevated},
		{"FILEFLY_SESSION_SWEEP_INTERVAL", &cfg.SweepInterval},
	} {
		v := strings.TrimSpace(os.Getenv(e.key))
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrConfig, e.key, err)
		}
		*e.dst = d
	}

	if v := strings.TrimSpace(os.Getenv("FILEFLY_SESSION_TOKEN_BYTES")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: FILEFLY_SESSION_TOKEN_BYTES: not an integer", ErrConfig)
		}
		cfg.TokenBytes = n
	}
	return nil
}

// Validate checks the duration table and token size.
func (c Config) Validate() error {
	if c.Short <= 0 || c.Long <= 0 || c.Elevated <= 0 || c.SweepInterval <= 0 {
		return fmt.Errorf("%w: durations must be positive", ErrConfig)
	}
	// An elevated window outliving the base session would extend it through elevation.
	if c.Elevated >= c.Short || c.Elevated >= c.Long {
		return fmt.Errorf("%w: elevated (%s) must be shorter than short (%s) and long (%s)",
			ErrConfig, c.Elevated, c.Short, c.Long)
	}
	if c.TokenBytes < 32 || c.TokenBytes > 128 {
		return fmt.Errorf("%w: token_bytes out of range [32..128]: %d", ErrConfig, c.TokenBytes)
	}
	return nil
}
