package accounts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBackend stores accounts in PostgreSQL using the same key-value shape as SQLiteBackend.
//
// Design notes:
//   - The backend owns the pool it opened in OpenPostgres; NewPostgresBackend borrows a caller pool.
//   - Schema/table identifiers are quoted via pgx.Identifier.
//   - Keys are ordered with the "C" collation so List matches SQLite's byte ordering.
type PostgresBackend struct {
	pool     *pgxpool.Pool
	schema   string
	ownsPool bool
}

// PostgresOption configures the backend.
type PostgresOption func(*PostgresBackend) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the schema holding the accounts table (default "filefly").
func WithSchema(schema string) PostgresOption {
	return func(b *PostgresBackend) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("accounts: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("accounts: invalid schema identifier")
		}
		b.schema = schema
		return nil
	}
}

// OpenPostgres connects to databaseURL and prepares the schema.
func OpenPostgres(ctx context.Context, databaseURL string, opts ...PostgresOption) (*PostgresBackend, error) {
	cfg, err := pgxpool.ParseConfig(strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("accounts: parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("accounts: connect postgres: %w", err)
	}

	b, err := NewPostgresBackend(ctx, pool, opts...)
	if err != nil {
		pool.Close()
		return nil, err
	}
	b.ownsPool = true
	return b, nil
}

// NewPostgresBackend wraps an existing pool and creates the accounts table if missing.
func NewPostgresBackend(ctx context.Context, pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresBackend, error) {
	if pool == nil {
		return nil, fmt.Errorf("accounts: nil pool")
	}
	b := &PostgresBackend{pool: pool, schema: "filefly"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	if err := b.Ping(ctx); err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, `CREATE SCHEMA IF NOT EXISTS `+pgx.Identifier{b.schema}.Sanitize()); err != nil {
		return nil, fmt.Errorf("accounts: create schema: %w", err)
	}
	if _, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS `+b.table()+` (
  key   TEXT PRIMARY KEY,
  value BYTEA NOT NULL
)`); err != nil {
		return nil, fmt.Errorf("accounts: create table: %w", err)
	}
	return b, nil
}

func (b *PostgresBackend) table() string {
	return pgx.Identifier{b.schema, "accounts"}.Sanitize()
}

func (b *PostgresBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.pool.QueryRow(ctx, `SELECT value FROM `+b.table()+` WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account[%s]: %w", key, err)
	}
	return value, nil
}

func (b *PostgresBackend) Insert(ctx context.Context, key string, value []byte) error {
	tag, err := b.pool.Exec(ctx,
		`INSERT INTO `+b.table()+` (key, value) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("insert account[%s]: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserExists
	}
	return nil
}

func (b *PostgresBackend) List(ctx context.Context) ([]Entry, error) {
	rows, err := b.pool.Query(ctx, `SELECT key, value FROM `+b.table()+` ORDER BY key COLLATE "C"`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account rows: %w", err)
	}
	return out, nil
}

func (b *PostgresBackend) Ping(ctx context.Context) error {
	c, err := b.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer c.Release()
	return c.Ping(ctx)
}

// Close closes the pool only when the backend opened it.
func (b *PostgresBackend) Close() error {
	if b.ownsPool {
		b.pool.Close()
	}
	return nil
}
