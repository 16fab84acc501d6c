// Package ratelimit throttles failed login attempts per key (account name or client IP).
//
// Two implementations share the Limiter contract: Memory keeps a sliding window per
// key in process, Redis keeps fixed-window counters that several processes can share.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnavailable wraps failures of the backing store.
	ErrUnavailable = errors.New("rate limiter unavailable")
	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid rate limit config")
)

// Limiter counts failures per key.
type Limiter interface {
	// Allow reports whether key may attempt again. When it may not, retryAfter is
	// the time until the oldest counted failure leaves the window.
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
	// Fail records one failed attempt for key.
	Fail(ctx context.Context, key string) error
	// Reset forgets the failures of key.
	Reset(ctx context.Context, key string) error
}

// Config bounds failures per key within Window.
type Config struct {
	MaxFailures int           `yaml:"max_failures"`
	Window      time.Duration `yaml:"window"`
}

// DefaultConfig allows 5 failures per 15 minutes.
func DefaultConfig() Config {
	return Config{MaxFailures: 5, Window: 15 * time.Minute}
}

// Validate reports whether cfg is usable. MaxFailures 0 disables limiting.
func (c Config) Validate() error {
	if c.MaxFailures < 0 {
		return ErrConfig
	}
	if c.MaxFailures > 0 && c.Window <= 0 {
		return ErrConfig
	}
	return nil
}

// NameKey and IPKey namespace keys so a name cannot collide with an address.
func NameKey(name string) string { return "name:" + name }
func IPKey(ip string) string     { return "ip:" + ip }
