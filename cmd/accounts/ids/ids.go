// Package ids provides identifier primitives: account identifiers and ULID request ids.
package ids

import (
	"crypto/rand"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewIdentifier returns "<name>.<uuid-v4>".
// The name prefix keeps identifiers readable; uniqueness comes from the UUID.
func NewIdentifier(name string) (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return name + "." + u.String(), nil
}

// SplitIdentifier returns the name and UUID parts of an account identifier.
// Names may contain dots, so the split happens at the last one.
func SplitIdentifier(id string) (name string, u uuid.UUID, err error) {
	i := strings.LastIndexByte(id, '.')
	if i <= 0 {
		return "", uuid.Nil, errors.New("ids: malformed identifier")
	}
	u, err = uuid.Parse(id[i+1:])
	if err != nil {
		return "", uuid.Nil, err
	}
	return id[:i], u, nil
}

// NewULID returns a new ULID string (26 chars).
// ULIDs are lexicographically sortable, which keeps request ids time-ordered in logs.
func NewULID(now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
