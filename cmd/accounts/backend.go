package accounts

import "context"

// Entry is one key/value pair of an account backend.
type Entry struct {
	Key   string
	Value []byte
}

// Backend is an ordered key-value store holding encoded account records under the account name.
//
// Contract:
//   - Get returns ErrNotFound for a missing key, never a generic I/O error.
//   - Insert is a conditional insert: it returns ErrUserExists if key is already present,
//     atomically with respect to concurrent inserts of the same key.
//   - List returns every entry in ascending key order.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Insert(ctx context.Context, key string, value []byte) error
	List(ctx context.Context) ([]Entry, error)
	Ping(ctx context.Context) error
	Close() error
}
