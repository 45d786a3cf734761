package boltdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/iudanet/masjidkeu/internal/client/storage"
)

// создаём тестовое BoltDB хранилище
func createTestStorage(t *testing.T) (*Storage, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "session_test.db")

	store, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return store, dbPath
}

func TestNew_Success(t *testing.T) {
	store, dbPath := createTestStorage(t)

	// Проверяем что файл БД действительно создан
	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.False(t, info.IsDir())

	// Проверяем, что бакет существует
	err = store.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketSession) == nil {
			return os.ErrNotExist
		}
		return nil
	})
	require.NoError(t, err)
}

func TestNew_InvalidPath(t *testing.T) {
	// Путь с нулевым символом даст ошибку открытия
	store, err := New(context.Background(), string([]byte{0}))
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestClose(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "testdb.db")

	store, err := New(context.Background(), dbPath)
	require.NoError(t, err)

	require.NoError(t, store.Close())
	assert.Nil(t, store.db)

	// Второй вызов Close ничего не делает
	assert.NoError(t, store.Close())

	// Операции после закрытия возвращают ErrStorageClosed
	_, err = store.Get(context.Background(), storage.KeyAccessToken)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, store.Set(context.Background(), "k", "v"), storage.ErrStorageClosed)
	assert.ErrorIs(t, store.Delete(context.Background(), "k"), storage.ErrStorageClosed)
}

func TestStorage_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	store, _ := createTestStorage(t)

	// До сохранения ключа нет
	_, err := store.Get(ctx, storage.KeyAccessToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Set(ctx, storage.KeyAccessToken, "A1"))
	require.NoError(t, store.Set(ctx, storage.KeyRefreshToken, "R1"))

	got, err := store.Get(ctx, storage.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "A1", got)

	// Перезапись значения
	require.NoError(t, store.Set(ctx, storage.KeyAccessToken, "A2"))
	got, err = store.Get(ctx, storage.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "A2", got)

	// Удаляем оба ключа одной транзакцией
	require.NoError(t, store.Delete(ctx, storage.KeyAccessToken, storage.KeyRefreshToken))

	_, err = store.Get(ctx, storage.KeyAccessToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.Get(ctx, storage.KeyRefreshToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Повторное удаление не ошибка
	assert.NoError(t, store.Delete(ctx, storage.SessionKeys...))
}

func TestStorage_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "reopen.db")

	store, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, storage.KeyRealm, "level"))
	require.NoError(t, store.Close())

	reopened, err := New(ctx, dbPath)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, reopened.Close())
	}()

	got, err := reopened.Get(ctx, storage.KeyRealm)
	require.NoError(t, err)
	assert.Equal(t, "level", got)
}

func TestStorage_BucketMissing(t *testing.T) {
	ctx := context.Background()
	store, _ := createTestStorage(t)

	// Для теста удалим bucket напрямую
	err := store.db.Update(func(tx *bbolt.Tx) error {
		return tx.DeleteBucket(bucketSession)
	})
	require.NoError(t, err)

	_, err = store.Get(ctx, storage.KeyAccessToken)
	assert.ErrorContains(t, err, "session bucket not found")
	assert.ErrorContains(t, store.Set(ctx, "k", "v"), "session bucket not found")
	assert.ErrorContains(t, store.Delete(ctx, "k"), "session bucket not found")
}
