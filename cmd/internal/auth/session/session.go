package session

import (
	"context"
	"time"

	"filefly/cmd/accounts"
)

// Kind selects a session's expiration window.
type Kind string

const (
	KindShort    Kind = "short"
	KindLong     Kind = "long"
	KindElevated Kind = "elevated"
)

// Session is a snapshot of one live session.
type Session struct {
	Token             string
	AccountName       string
	AccountIdentifier string
	Root              bool
	Elevated          bool
	Kind              Kind
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ExpiresAt returns the instant the session expires unless renewed.
func (s Session) ExpiresAt(cfg Config) time.Time {
	return s.UpdatedAt.Add(cfg.DurationFor(s.Kind))
}

// Authenticator is the credential lookup the manager depends on.
// accounts.Service implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, name, pass string) (accounts.Account, error)
}
