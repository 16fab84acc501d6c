package accounts

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"filefly/cmd/accounts/ids"
)

// Integration tests are opt-in and require FILEFLY_TEST_DATABASE_URL.
// Outside CI, an unreachable Postgres skips these tests to keep local runs fast.

func TestPostgresBackend_Contract(t *testing.T) {
	pool := mustOpenTestPool(t)
	defer pool.Close()

	schema := mustTestSchemaName(t)
	t.Cleanup(func() { mustDropSchema(t, pool, schema) })

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	b, err := NewPostgresBackend(ctx, pool, WithSchema(schema))
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}

	runBackendContract(t, b)

	// Borrowed pools stay open after Close.
	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("pool closed by borrowed backend: %v", err)
	}
}

func TestPostgresBackend_ServiceRoundTrip(t *testing.T) {
	pool := mustOpenTestPool(t)
	defer pool.Close()

	schema := mustTestSchemaName(t)
	t.Cleanup(func() { mustDropSchema(t, pool, schema) })

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	b, err := NewPostgresBackend(ctx, pool, WithSchema(schema))
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	s, err := NewService(b, testConfig(), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	created, err := s.Bootstrap(ctx)
	if err != nil || !created {
		t.Fatalf("bootstrap: created=%v err=%v", created, err)
	}
	if err := s.Create(ctx, CreateInput{Name: "alice", Password: "Str0ng!Passw0rd"}, false); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create(ctx, CreateInput{Name: "alice", Password: "Str0ng!Passw0rd"}, false); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected user_exists, got %v", err)
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].Name != "admin" || all[1].Name != "alice" {
		t.Fatalf("unexpected list: %+v", all)
	}

	if _, err := s.Authenticate(ctx, "alice", "Str0ng!Passw0rd"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
}

func TestWithSchema_RejectsUnsafeIdentifiers(t *testing.T) {
	for _, in := range []string{"", "  ", "bad-name", `x"; DROP SCHEMA public; --`, "1abc"} {
		b := &PostgresBackend{}
		if err := WithSchema(in)(b); err == nil {
			t.Fatalf("expected error for schema %q", in)
		}
	}
}

func mustOpenTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	raw := strings.TrimSpace(os.Getenv("FILEFLY_TEST_DATABASE_URL"))
	if raw == "" {
		t.Skip("integration test skipped: FILEFLY_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(raw)
	if err != nil {
		t.Fatalf("parse FILEFLY_TEST_DATABASE_URL: %v", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer pingCancel()

	c, err := pool.Acquire(pingCtx)
	if err != nil {
		pool.Close()
		if shouldSkipIntegration(err) {
			t.Skipf("integration test skipped: Postgres unreachable: %v", err)
		}
		t.Fatalf("acquire: %v", err)
	}
	c.Release()

	return pool
}

func mustTestSchemaName(t *testing.T) string {
	t.Helper()

	id, err := ids.NewULID(time.Now().UTC())
	if err != nil {
		t.Fatalf("ulid: %v", err)
	}
	return "filefly_it_" + strings.ToLower(id)
}

func mustDropSchema(t *testing.T, pool *pgxpool.Pool, schema string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = pool.Exec(ctx, `DROP SCHEMA IF EXISTS `+pgx.Identifier{schema}.Sanitize()+` CASCADE`)
}

func shouldSkipIntegration(err error) bool {
	if err == nil {
		return false
	}
	if os.Getenv("CI") != "" {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "dial tcp") ||
		strings.Contains(msg, "no such host")
}
