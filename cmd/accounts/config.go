package accounts

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"filefly/cmd/security/password"
)

const maxNameLength = 150

// NameBounds limits account name length, counted in characters.
type NameBounds struct {
	MinLength int `yaml:"min_length"`
	MaxLength int `yaml:"max_length"`
}

// Config is the accounts section of the server configuration.
type Config struct {
	Username NameBounds      `yaml:"username"`
	Password password.Config `yaml:"password"`
}

// DefaultConfig returns the account defaults.
func DefaultConfig() Config {
	return Config{
		Username: NameBounds{MinLength: 4, MaxLength: 32},
		Password: password.DefaultConfig(),
	}
}

// ApplyEnv overlays FILEFLY_USERNAME_MIN_LEN, FILEFLY_USERNAME_MAX_LEN and the
// password package variables onto cfg.
func ApplyEnv(cfg *Config) error {
	for _, e := range []struct {
		key string
		dst *int
	}{
		{"FILEFLY_USERNAME_MIN_LEN", &cfg.Username.MinLength},
		{"FILEFLY_USERNAME_MAX_LEN", &cfg.Username.MaxLength},
	} {
		v, ok := os.LookupEnv(e.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: not an integer", e.key)
		}
		*e.dst = n
	}
	return password.ApplyEnv(&cfg.Password)
}

// Check reports whether the configuration is usable.
func (c Config) Check() error {
	if c.Username.MinLength < 1 {
		return fmt.Errorf("accounts: username min_length must be positive")
	}
	if c.Username.MaxLength > maxNameLength {
		return fmt.Errorf("accounts: username max_length must be <= %d", maxNameLength)
	}
	if c.Username.MinLength > c.Username.MaxLength {
		return fmt.Errorf(
			"accounts: username min_length(%d) > max_length(%d)",
			c.Username.MinLength,
			c.Username.MaxLength,
		)
	}
	return c.Password.Check()
}
