package authapi

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"filefly/cmd/internal/auth/ratelimit"
)

// Config controls auth API behavior and security defaults.
type Config struct {
	CookieName     string `yaml:"cookie_name"`
	CookiePath     string `yaml:"cookie_path"`
	CookieDomain   string `yaml:"cookie_domain"`
	CookieSecure   bool   `yaml:"cookie_secure"`
	CookieSameSite string `yaml:"cookie_same_site"` // lax|strict|none

	TrustProxy   bool  `yaml:"trust_proxy"`
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// LoginLimit throttles failed logins per account name and per client IP.
	LoginLimit ratelimit.Config `yaml:"login_limit"`
}

// DefaultConfig returns safe defaults. The session cookie is named "sid".
func DefaultConfig() Config {
	return Config{
		CookieName:     "sid",
		CookiePath:     "/",
		CookieSameSite: "lax",
		MaxBodyBytes:   64 << 10, // 64 KiB
		LoginLimit:     ratelimit.DefaultConfig(),
	}
}

// ApplyEnv overlays environment variables onto cfg. Unparseable values keep the current setting.
//
//   - FILEFLY_API_COOKIE_NAME
//   - FILEFLY_API_COOKIE_DOMAIN
//   - FILEFLY_API_COOKIE_SECURE
//   - FILEFLY_API_COOKIE_SAMESITE
//   - FILEFLY_API_TRUST_PROXY
//   - FILEFLY_API_MAX_BODY_BYTES
//   - FILEFLY_LOGIN_MAX_FAILURES
//   - FILEFLY_LOGIN_WINDOW
func ApplyEnv(cfg *Config) {
	cfg.CookieName = envString("FILEFLY_API_COOKIE_NAME", cfg.CookieName)
	cfg.CookieDomain = envString("FILEFLY_API_COOKIE_DOMAIN", cfg.CookieDomain)
	cfg.CookieSecure = envBool("FILEFLY_API_COOKIE_SECURE", cfg.CookieSecure)
	cfg.CookieSameSite = envString("FILEFLY_API_COOKIE_SAMESITE", cfg.CookieSameSite)
	cfg.TrustProxy = envBool("FILEFLY_API_TRUST_PROXY", cfg.TrustProxy)
	cfg.MaxBodyBytes = envInt64("FILEFLY_API_MAX_BODY_BYTES", cfg.MaxBodyBytes)
	cfg.LoginLimit.MaxFailures = envInt("FILEFLY_LOGIN_MAX_FAILURES", cfg.LoginLimit.MaxFailures)
	cfg.LoginLimit.Window = envDuration("FILEFLY_LOGIN_WINDOW", cfg.LoginLimit.Window)
}

// Validate reports whether cfg is usable.
func (c Config) Validate() error {
	if !validCookieName(c.CookieName) {
		return fmt.Errorf("authapi: invalid cookie name %q", c.CookieName)
	}
	ss, err := parseSameSite(c.CookieSameSite)
	if err != nil {
		return err
	}
	if ss == http.SameSiteNoneMode && !c.CookieSecure {
		return errors.New("authapi: cookie_same_site=none requires cookie_secure")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("authapi: max_body_bytes must be positive")
	}
	return c.LoginLimit.Validate()
}

func (c Config) sameSite() http.SameSite {
	s, _ := parseSameSite(c.CookieSameSite)
	return s
}

func parseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("authapi: invalid cookie_same_site %q", s)
	}
}

// validCookieName accepts RFC 6265 token characters.
func validCookieName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r <= 0x20 || r >= 0x7f || strings.ContainsRune(`()<>@,;:\"/[]?={}`, r) {
			return false
		}
	}
	return true
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
