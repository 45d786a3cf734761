package storage

import (
	"context"
)

// Ключи, под которыми сессия хранится на клиенте.
// Имена совпадают с ключами localStorage браузерной версии панели.
const (
	KeyAccessToken  = "authToken"
	KeyRefreshToken = "refreshToken"
	KeyUserName     = "userName"
	KeyRealm        = "authRealm"
	KeyMenus        = "menus"
	KeyLastActivity = "lastActivity"

	// KeySalt хранит соль для шифрования токенов, logout её не удаляет
	KeySalt = "keySalt"
)

// SessionKeys lists every key removed when the session is cleared.
var SessionKeys = []string{
	KeyAccessToken,
	KeyRefreshToken,
	KeyUserName,
	KeyRealm,
	KeyMenus,
	KeyLastActivity,
}

// KeyValueStorage defines the persisted string map the session lives in.
// This is the lowest storage layer - values are stored as-is,
// encryption of tokens happens in session.TokenStore.
type KeyValueStorage interface {
	// Get returns the stored value or ErrNotFound
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing the previous one
	Set(ctx context.Context, key, value string) error

	// Delete removes all given keys in a single transaction.
	// Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Close releases the underlying database
	Close() error
}
