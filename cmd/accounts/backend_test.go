package accounts

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runBackendContract exercises the behaviour every Backend must share.
func runBackendContract(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, b.Ping(ctx))

	_, err := b.Get(ctx, "absent")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, b.Insert(ctx, "k2", []byte("two")))
	require.NoError(t, b.Insert(ctx, "k1", []byte("one")))
	require.NoError(t, b.Insert(ctx, "K0", []byte("zero")))

	v, err := b.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), v)

	// Conditional insert never overwrites.
	require.ErrorIs(t, b.Insert(ctx, "k1", []byte("other")), ErrUserExists)
	v, err = b.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), v)

	entries, err := b.List(ctx)
	require.NoError(t, err)
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{"K0", "k1", "k2"}, keys)

	// Racing inserts of one key: exactly one wins.
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := b.Insert(ctx, "race", []byte("x")); err == nil {
				wins.Add(1)
			} else {
				assert.ErrorIs(t, err, ErrUserExists)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestMemoryBackend_Contract(t *testing.T) {
	runBackendContract(t, NewMemoryBackend())
}

func TestMemoryBackend_ReturnsCopies(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	val := []byte("abc")
	require.NoError(t, b.Insert(ctx, "k", val))
	val[0] = 'X'

	got, err := b.Get(ctx, "k")
	require.NoError(t, err)
	got[1] = 'Y'

	again, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestSQLiteBackend_Contract(t *testing.T) {
	b, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "accounts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	runBackendContract(t, b)
}

func TestSQLiteBackend_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "accounts.db")

	b, err := OpenSQLite(ctx, path)
	require.NoError(t, err)

	s, err := NewService(b, testConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, CreateInput{Name: "alice", Password: "Str0ng!Passw0rd"}, false))
	before, err := s.Get(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	b2, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	s2, err := NewService(b2, testConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s2.Close() })

	after, err := s2.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, before.Identifier, after.Identifier)
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))

	_, err = s2.Authenticate(ctx, "alice", "Str0ng!Passw0rd")
	require.NoError(t, err)

	created, err := s2.Bootstrap(ctx)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestSQLiteBackend_InMemory(t *testing.T) {
	b, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	runBackendContract(t, b)
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "")
	require.Error(t, err)
}
