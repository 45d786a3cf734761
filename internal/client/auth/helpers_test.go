package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/masjidkeu/internal/client/session"
	"github.com/iudanet/masjidkeu/internal/client/storage"
)

// memStorage: потокобезопасное KeyValueStorage в памяти для тестов
type memStorage struct {
	data map[string]string
	mu   sync.Mutex
}

func newMemStorage() *memStorage {
	return &memStorage{data: map[string]string{}}
}

func (m *memStorage) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (m *memStorage) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memStorage) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memStorage) Close() error { return nil }

// newTestStore создаёт TokenStore с заданными access/refresh токенами
func newTestStore(t *testing.T, access, refresh string) *session.TokenStore {
	t.Helper()
	ctx := context.Background()

	store := session.NewTokenStore(newMemStorage())
	require.NoError(t, store.SetAccessToken(ctx, access))
	require.NoError(t, store.SetRefreshToken(ctx, refresh))
	return store
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}
