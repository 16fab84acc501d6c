package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"filefly/cmd/accounts"
	"filefly/cmd/security/token"
)

const maxTokenAttempts = 5

// Manager is the in-memory session registry.
//
// Concurrency: mu guards sessions. Token check+insert, sweep iteration+delete and the
// final write of Elevate run under the write lock. Password verification runs outside it.
type Manager struct {
	cfg     Config
	auth    Authenticator
	log     *slog.Logger
	metrics *Metrics

	newToken func() (string, error)
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]Session

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Manager.
type Option func(*Manager)

// WithTokenSource replaces the token generator (tests force collisions with it).
func WithTokenSource(fn func() (string, error)) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newToken = fn
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithMetrics records session metrics into metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// NewManager returns an empty Manager. Call Start to run the expiry sweep.
func NewManager(cfg Config, auth Authenticator, log *slog.Logger, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if auth == nil {
		return nil, errors.New("session: nil authenticator")
	}
	if log == nil {
		log = slog.Default()
	}

	gen := token.Generator{Bytes: cfg.TokenBytes}
	m := &Manager{
		cfg:      cfg,
		auth:     auth,
		log:      log.With("component", "session"),
		newToken: gen.New,
		now:      time.Now,
		sessions: make(map[string]Session),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

// Config returns the manager's configuration.
func (m *Manager) Config() Config { return m.cfg }

// Create authenticates name/pass and opens a new session, returning its token.
// Unknown names and wrong passwords both yield ErrBadNameOrPass.
func (m *Manager) Create(ctx context.Context, name, pass string, long bool) (string, error) {
	acct, err := m.auth.Authenticate(ctx, name, pass)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) || errors.Is(err, accounts.ErrBadPassword) {
			m.log.Info("session.create.denied", "name", name)
			m.metrics.onFailure("create", ErrBadNameOrPass)
			return "", ErrBadNameOrPass
		}
		m.log.Error("session.create.failed", "name", name, "err", err)
		m.metrics.onFailure("create", ErrUnknown)
		return "", ErrUnknown
	}

	kind := KindShort
	if long {
		kind = KindLong
	}
	now := m.now()

	m.mu.Lock()
	tok, err := m.uniqueTokenLocked()
	if err != nil {
		m.mu.Unlock()
		m.log.Error("session.create.failed", "name", name, "err", err)
		m.metrics.onFailure("create", ErrUnknown)
		return "", ErrUnknown
	}
	m.sessions[tok] = Session{
		Token:             tok,
		AccountName:       acct.Name,
		AccountIdentifier: acct.Identifier,
		Root:              acct.Root,
		Kind:              kind,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	live := len(m.sessions)
	m.mu.Unlock()

	m.metrics.onCreate(kind, live)
	m.log.Info("session.create.ok",
		"identifier", acct.Identifier,
		"kind", kind,
		"token", token.Redact(tok),
	)
	return tok, nil
}

func (m *Manager) uniqueTokenLocked() (string, error) {
	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		tok, err := m.newToken()
		if err != nil {
			return "", err
		}
		if _, taken := m.sessions[tok]; !taken {
			return tok, nil
		}
		m.log.Warn("session.token.collision", "attempt", attempt)
	}
	return "", fmt.Errorf("%w after %d attempts", errTokenExhausted, maxTokenAttempts)
}

// live reports whether s has not yet expired at now.
func (m *Manager) live(s Session, now time.Time) bool {
	return now.Before(s.ExpiresAt(m.cfg))
}

// Renew returns the session for tok without modifying it.
// Sessions past their expiry are reported as missing even before the sweep removes them.
func (m *Manager) Renew(tok string) (Session, error) {
	now := m.now()

	m.mu.RLock()
	s, ok := m.sessions[tok]
	m.mu.RUnlock()

	if !ok || !m.live(s, now) {
		m.metrics.onFailure("renew", ErrSessionNotFound)
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

// Extend resets the expiration clock of tok's session and returns the updated snapshot.
func (m *Manager) Extend(tok string) (Session, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[tok]
	if !ok || !m.live(s, now) {
		m.metrics.onFailure("extend", ErrSessionNotFound)
		return Session{}, ErrSessionNotFound
	}
	s.UpdatedAt = now
	m.sessions[tok] = s
	return s, nil
}

// Elevate re-verifies the account password of a root session and switches it to the
// elevated kind. The token stays the same.
func (m *Manager) Elevate(ctx context.Context, tok, pass string) error {
	m.mu.RLock()
	s, ok := m.sessions[tok]
	m.mu.RUnlock()

	if !ok || !m.live(s, m.now()) {
		m.metrics.onFailure("elevate", ErrUnknownSession)
		return ErrUnknownSession
	}
	if !s.Root {
		m.log.Warn("session.elevate.denied", "identifier", s.AccountIdentifier, "reason", ErrRootRequired)
		m.metrics.onFailure("elevate", ErrRootRequired)
		return ErrRootRequired
	}

	if _, err := m.auth.Authenticate(ctx, s.AccountName, pass); err != nil {
		switch {
		case errors.Is(err, accounts.ErrBadPassword):
			m.log.Warn("session.elevate.denied", "identifier", s.AccountIdentifier, "reason", ErrBadNameOrPass)
			m.metrics.onFailure("elevate", ErrBadNameOrPass)
			return ErrBadNameOrPass
		default:
			// Includes an account that vanished after the session was created.
			m.log.Error("session.elevate.failed", "identifier", s.AccountIdentifier, "err", err)
			m.metrics.onFailure("elevate", ErrUnknown)
			return ErrUnknown
		}
	}

	now := m.now()

	m.mu.Lock()
	cur, ok := m.sessions[tok]
	if !ok || !m.live(cur, now) {
		m.mu.Unlock()
		m.metrics.onFailure("elevate", ErrUnknownSession)
		return ErrUnknownSession
	}
	cur.Elevated = true
	cur.Kind = KindElevated
	cur.UpdatedAt = now
	m.sessions[tok] = cur
	m.mu.Unlock()

	m.metrics.onElevate()
	m.log.Info("session.elevate.ok", "identifier", cur.AccountIdentifier, "token", token.Redact(tok))
	return nil
}

// Sweep removes every session expired at now and returns how many were removed.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	var expired []Session
	for tok, s := range m.sessions {
		if m.live(s, now) {
			continue
		}
		delete(m.sessions, tok)
		expired = append(expired, s)
	}
	live := len(m.sessions)
	m.mu.Unlock()

	for _, s := range expired {
		m.log.Info("session.sweep.expired",
			"token", token.Redact(s.Token),
			"identifier", s.AccountIdentifier,
			"lifetime", lifetime(s, now),
			"elevated", s.Elevated,
		)
	}
	m.metrics.onSweep(len(expired), live)
	return len(expired)
}

// lifetime renders how long s lived: days for long sessions, hours otherwise.
func lifetime(s Session, now time.Time) string {
	d := now.Sub(s.CreatedAt)
	if s.Kind == KindLong {
		return fmt.Sprintf("%.2fd", d.Hours()/24)
	}
	return fmt.Sprintf("%.2fh", d.Hours())
}

// Len returns the number of sessions in memory, including expired ones not yet swept.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Start runs the expiry sweep every SweepInterval until ctx is done or Stop is called.
// Calling Start on a running manager is a no-op.
func (m *Manager) Start(ctx context.Context) {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(m.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Sweep(m.now())
			}
		}
	}()
	m.log.Debug("session.sweep.started", "interval", m.cfg.SweepInterval)
}

// Stop halts the sweep goroutine and waits for it to exit.
func (m *Manager) Stop() {
	m.runMu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	m.log.Debug("session.sweep.stopped")
}
