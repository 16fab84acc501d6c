package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"filefly/cmd/accounts/ids"
	"filefly/cmd/security/password"
)

const (
	maxIdentifierAttempts = 8

	bootstrapName     = "admin"
	bootstrapPassword = "admin"
)

// Service is the credential store: account creation, lookup and password authentication.
// It is safe for concurrent use.
type Service struct {
	backend Backend
	cfg     Config
	log     *slog.Logger

	newIdentifier func(name string) (string, error)
	now           func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// Option configures a Service.
type Option func(*Service)

// WithIdentifierSource replaces the identifier generator (tests force collisions with it).
func WithIdentifierSource(fn func(name string) (string, error)) Option {
	return func(s *Service) {
		if fn != nil {
			s.newIdentifier = fn
		}
	}
}

// WithClock replaces the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService returns a Service over backend. The Service takes ownership of backend
// and closes it in Close.
func NewService(backend Backend, cfg Config, log *slog.Logger, opts ...Option) (*Service, error) {
	if backend == nil {
		return nil, errors.New("accounts: nil backend")
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		backend:       backend,
		cfg:           cfg,
		log:           log.With("component", "accounts"),
		newIdentifier: ids.NewIdentifier,
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Create stores a new account.
//
// Checks run in a fixed order: name availability, input types, name length,
// password policy. skipChecks skips everything but the availability check and is
// meant for internal callers such as Bootstrap.
func (s *Service) Create(ctx context.Context, in CreateInput, skipChecks bool) error {
	const op = "accounts.Create"

	s.log.Debug("accounts.create.attempt", "name", in.Name, "root", in.Root)

	exists, err := s.Exists(ctx, in.Name)
	if err != nil {
		return err
	}
	if exists {
		return OpError{Op: op, Kind: ErrUserExists}
	}

	if !skipChecks {
		if err := s.checkInput(op, in); err != nil {
			return err
		}
	}

	hash, err := s.cfg.Password.Hash(in.Password)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooLong) {
			return OpError{Op: op, Kind: password.ErrPasswordTooLong, Msg: "password exceeds hasher limit"}
		}
		return OpError{Op: op, Kind: ErrStorage, Msg: "hash password", Err: err}
	}

	identifier, err := s.uniqueIdentifier(ctx, in.Name)
	if err != nil {
		return err
	}

	acct := Account{
		Name:         in.Name,
		PasswordHash: hash,
		Identifier:   identifier,
		Root:         in.Root,
		CreatedAt:    s.now(),
	}
	value, err := encodeAccount(acct)
	if err != nil {
		return storageErr(op, err)
	}

	if err := s.backend.Insert(ctx, in.Name, value); err != nil {
		if errors.Is(err, ErrUserExists) {
			// Lost a race with a concurrent create of the same name.
			return OpError{Op: op, Kind: ErrUserExists}
		}
		return storageErr(op, err)
	}

	s.log.Debug("accounts.create.ok", "name", acct.Name, "root", acct.Root, "identifier", acct.Identifier)
	return nil
}

func (s *Service) checkInput(op string, in CreateInput) error {
	if !validName(in.Name) || !utf8.ValidString(in.Password) {
		return OpError{Op: op, Kind: ErrTypeCheckFailed}
	}

	n := utf8.RuneCountInString(in.Name)
	if n < s.cfg.Username.MinLength {
		return OpError{Op: op, Kind: ErrNameTooShort}
	}
	if n > s.cfg.Username.MaxLength {
		return OpError{Op: op, Kind: ErrNameTooLong}
	}

	if err := s.cfg.Password.Validate(in.Password); err != nil {
		return OpError{Op: op, Kind: err}
	}
	return nil
}

// validName rejects names that cannot round-trip through logs, cookies-adjacent
// identifiers and config files unchanged.
func validName(name string) bool {
	if name == "" || !utf8.ValidString(name) {
		return false
	}
	if strings.TrimSpace(name) != name {
		return false
	}
	return strings.IndexFunc(name, unicode.IsControl) < 0
}

// uniqueIdentifier draws identifiers until one is not used by any existing account.
func (s *Service) uniqueIdentifier(ctx context.Context, name string) (string, error) {
	const op = "accounts.Create"

	all, err := s.List(ctx)
	if err != nil {
		return "", err
	}
	taken := make(map[string]struct{}, len(all))
	for _, a := range all {
		taken[a.Identifier] = struct{}{}
	}

	for attempt := 1; attempt <= maxIdentifierAttempts; attempt++ {
		id, err := s.newIdentifier(name)
		if err != nil {
			return "", OpError{Op: op, Kind: ErrStorage, Msg: "generate identifier", Err: err}
		}
		if _, dup := taken[id]; !dup {
			return id, nil
		}
		s.log.Warn("accounts.identifier.collision", "name", name, "attempt", attempt)
	}
	return "", OpError{Op: op, Kind: ErrIdentifierExhausted, Msg: fmt.Sprintf("%d attempts", maxIdentifierAttempts)}
}

// Get returns the account stored under name.
func (s *Service) Get(ctx context.Context, name string) (Account, error) {
	const op = "accounts.Get"

	raw, err := s.backend.Get(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Account{}, OpError{Op: op, Kind: ErrNotFound}
		}
		return Account{}, storageErr(op, err)
	}
	acct, err := decodeAccount(raw)
	if err != nil {
		return Account{}, OpError{Op: op, Kind: ErrStorage, Msg: "decode record " + name, Err: err}
	}
	return acct, nil
}

// Exists reports whether an account named name exists.
func (s *Service) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.Get(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case IsNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

// List returns every account ordered by name.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	const op = "accounts.List"

	entries, err := s.backend.List(ctx)
	if err != nil {
		return nil, storageErr(op, err)
	}
	out := make([]Account, 0, len(entries))
	for _, e := range entries {
		acct, err := decodeAccount(e.Value)
		if err != nil {
			return nil, OpError{Op: op, Kind: ErrStorage, Msg: "decode record " + e.Key, Err: err}
		}
		out = append(out, acct)
	}
	return out, nil
}

// Bootstrap creates the default root account admin/admin when no accounts exist.
// It reports whether the account was created.
func (s *Service) Bootstrap(ctx context.Context) (bool, error) {
	all, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	if len(all) > 0 {
		return false, nil
	}

	err = s.Create(ctx, CreateInput{Name: bootstrapName, Password: bootstrapPassword, Root: true}, true)
	if errors.Is(err, ErrUserExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.log.Warn("accounts.bootstrap.admin",
		"notice", `!! IMPORTANT !! A default administrator account was created with username "admin" and password "admin". Create a personal root account and stop using it.`,
		"name", bootstrapName,
	)
	return true, nil
}

// Authenticate verifies name and password and returns the account.
//
// Unknown names return ErrNotFound only after a verification against a dummy hash,
// so response timing does not reveal which names exist.
func (s *Service) Authenticate(ctx context.Context, name, pass string) (Account, error) {
	const op = "accounts.Authenticate"

	acct, err := s.Get(ctx, name)
	if err != nil {
		if IsNotFound(err) {
			if h := s.dummy(); h != "" {
				_, _ = s.cfg.Password.Verify(h, pass)
			}
		}
		return Account{}, err
	}

	ok, err := s.cfg.Password.Verify(acct.PasswordHash, pass)
	if err != nil {
		return Account{}, OpError{Op: op, Kind: ErrStorage, Msg: "stored hash for " + name, Err: err}
	}
	if !ok {
		return Account{}, OpError{Op: op, Kind: ErrBadPassword}
	}
	return acct, nil
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.cfg.Password.Hash("filefly-dummy-credential")
		if err != nil {
			s.log.Error("accounts.dummy_hash.failed", "err", err)
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

// Ping checks backend reachability.
func (s *Service) Ping(ctx context.Context) error { return s.backend.Ping(ctx) }

// Close closes the backend.
func (s *Service) Close() error { return s.backend.Close() }
