package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/masjidkeu/internal/client/storage"
)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()

	s, err := New(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})

	return s
}

func TestNew_MigratesSchema(t *testing.T) {
	s := setupTestStorage(t)

	var name string
	err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'session_kv'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "session_kv", name)
}

func TestNew_InMemory(t *testing.T) {
	s, err := New(context.Background(), ":memory:")
	require.NoError(t, err)
	defer func() {
		require.NoError(t, s.Close())
	}()

	require.NoError(t, s.Set(context.Background(), storage.KeyRealm, "admin"))
	got, err := s.Get(context.Background(), storage.KeyRealm)
	require.NoError(t, err)
	assert.Equal(t, "admin", got)
}

func TestStorage_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	_, err := s.Get(ctx, storage.KeyAccessToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set(ctx, storage.KeyAccessToken, "A1"))
	require.NoError(t, s.Set(ctx, storage.KeyUserName, "Bendahara"))

	// upsert
	require.NoError(t, s.Set(ctx, storage.KeyAccessToken, "A2"))
	got, err := s.Get(ctx, storage.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "A2", got)

	require.NoError(t, s.Delete(ctx, storage.SessionKeys...))

	for _, key := range []string{storage.KeyAccessToken, storage.KeyUserName} {
		_, err := s.Get(ctx, key)
		assert.ErrorIs(t, err, storage.ErrNotFound, key)
	}

	// Повторная очистка даёт то же состояние
	assert.NoError(t, s.Delete(ctx, storage.SessionKeys...))
}

func TestStorage_ClosedStorage(t *testing.T) {
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, s.Set(context.Background(), "k", "v"), storage.ErrStorageClosed)
	assert.ErrorIs(t, s.Delete(context.Background(), "k"), storage.ErrStorageClosed)
}
