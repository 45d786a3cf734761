package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/iudanet/masjidkeu/internal/client/storage"
	"github.com/iudanet/masjidkeu/internal/crypto"
)

// TokenStore provides typed access to the session kept in KeyValueStorage.
// When encryption is enabled tokens are sealed before they reach the storage.
type TokenStore struct {
	storage storage.KeyValueStorage
	cipher  *crypto.TokenCipher
}

// NewTokenStore creates a TokenStore without at-rest encryption
func NewTokenStore(s storage.KeyValueStorage) *TokenStore {
	return &TokenStore{storage: s}
}

// EnableEncryption включает шифрование токенов ключом из passphrase.
// Соль создаётся один раз и хранится рядом с сессией.
func (s *TokenStore) EnableEncryption(ctx context.Context, passphrase string) error {
	salt, err := s.storage.Get(ctx, storage.KeySalt)
	if errors.Is(err, storage.ErrNotFound) {
		salt, err = crypto.GenerateSaltBase64()
		if err != nil {
			return err
		}
		if err := s.storage.Set(ctx, storage.KeySalt, salt); err != nil {
			return fmt.Errorf("failed to save key salt: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to read key salt: %w", err)
	}

	key, err := crypto.DeriveKey(passphrase, salt)
	if err != nil {
		return fmt.Errorf("failed to derive session key: %w", err)
	}

	c, err := crypto.NewTokenCipher(key)
	if err != nil {
		return err
	}
	s.cipher = c
	return nil
}

// AccessToken returns the stored access token or "" when there is none
func (s *TokenStore) AccessToken(ctx context.Context) (string, error) {
	return s.getToken(ctx, storage.KeyAccessToken)
}

// SetAccessToken stores the access token, empty token removes it
func (s *TokenStore) SetAccessToken(ctx context.Context, token string) error {
	return s.setToken(ctx, storage.KeyAccessToken, token)
}

// RefreshToken returns the stored refresh token or ""
func (s *TokenStore) RefreshToken(ctx context.Context) (string, error) {
	return s.getToken(ctx, storage.KeyRefreshToken)
}

// SetRefreshToken stores the refresh token, empty token removes it
func (s *TokenStore) SetRefreshToken(ctx context.Context, token string) error {
	return s.setToken(ctx, storage.KeyRefreshToken, token)
}

// DisplayName returns the name of the logged in user
func (s *TokenStore) DisplayName(ctx context.Context) (string, error) {
	return s.get(ctx, storage.KeyUserName)
}

// SetDisplayName stores the user name shown in the header
func (s *TokenStore) SetDisplayName(ctx context.Context, name string) error {
	return s.set(ctx, storage.KeyUserName, name)
}

// Realm returns the stored realm, admin when unset or unrecognised
func (s *TokenStore) Realm(ctx context.Context) (Realm, error) {
	v, err := s.get(ctx, storage.KeyRealm)
	if err != nil {
		return RealmAdmin, err
	}
	if Realm(v) == RealmLevel {
		return RealmLevel, nil
	}
	return RealmAdmin, nil
}

// SetRealm stores the realm tag
func (s *TokenStore) SetRealm(ctx context.Context, realm Realm) error {
	return s.set(ctx, storage.KeyRealm, string(realm))
}

// Menus returns the stored menu payload, nil when absent
func (s *TokenStore) Menus(ctx context.Context) (*Menus, error) {
	raw, err := s.get(ctx, storage.KeyMenus)
	if err != nil || raw == "" {
		return nil, err
	}

	var menus Menus
	if err := json.Unmarshal([]byte(raw), &menus); err != nil {
		return nil, fmt.Errorf("failed to decode menus: %w", err)
	}
	return &menus, nil
}

// SetMenus stores the menu payload as one JSON blob
func (s *TokenStore) SetMenus(ctx context.Context, menus *Menus) error {
	if menus == nil {
		return s.storage.Delete(ctx, storage.KeyMenus)
	}

	data, err := json.Marshal(menus)
	if err != nil {
		return fmt.Errorf("failed to encode menus: %w", err)
	}
	return s.set(ctx, storage.KeyMenus, string(data))
}

// IsAuthenticated reports whether an access token is present
func (s *TokenStore) IsAuthenticated(ctx context.Context) bool {
	token, err := s.AccessToken(ctx)
	return err == nil && token != ""
}

// Clear removes the whole session in one storage transaction.
// Clearing an empty session is not an error.
func (s *TokenStore) Clear(ctx context.Context) error {
	if err := s.storage.Delete(ctx, storage.SessionKeys...); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Snapshot reads every session field at once
func (s *TokenStore) Snapshot(ctx context.Context) (*Session, error) {
	var (
		sess Session
		err  error
	)

	if sess.AccessToken, err = s.AccessToken(ctx); err != nil {
		return nil, err
	}
	if sess.RefreshToken, err = s.RefreshToken(ctx); err != nil {
		return nil, err
	}
	if sess.DisplayName, err = s.DisplayName(ctx); err != nil {
		return nil, err
	}
	if sess.Realm, err = s.Realm(ctx); err != nil {
		return nil, err
	}
	if sess.LastActivity, err = s.lastActivity(ctx); err != nil {
		return nil, err
	}

	return &sess, nil
}

// Touch записывает время последнего успешного запроса
func (s *TokenStore) Touch(ctx context.Context, now time.Time) error {
	return s.set(ctx, storage.KeyLastActivity, strconv.FormatInt(now.Unix(), 10))
}

// IdleExpired reports whether an authenticated session has been idle longer than timeout.
// Zero timeout disables the check.
func (s *TokenStore) IdleExpired(ctx context.Context, now time.Time, timeout time.Duration) (bool, error) {
	if timeout <= 0 || !s.IsAuthenticated(ctx) {
		return false, nil
	}

	last, err := s.lastActivity(ctx)
	if err != nil {
		return false, err
	}
	if last.IsZero() {
		return false, nil
	}

	return now.Sub(last) > timeout, nil
}

func (s *TokenStore) lastActivity(ctx context.Context) (time.Time, error) {
	raw, err := s.get(ctx, storage.KeyLastActivity)
	if err != nil || raw == "" {
		return time.Time{}, err
	}

	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Битое значение считаем отсутствующим
		slog.Debug("invalid last activity value", "value", raw, "error", err)
		return time.Time{}, nil
	}
	return time.Unix(unix, 0), nil
}

// get возвращает "" для отсутствующего ключа
func (s *TokenStore) get(ctx context.Context, key string) (string, error) {
	v, err := s.storage.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return v, nil
}

// set удаляет ключ при пустом значении, как сеттеры браузерной версии
func (s *TokenStore) set(ctx context.Context, key, value string) error {
	if value == "" {
		if err := s.storage.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
		return nil
	}
	if err := s.storage.Set(ctx, key, value); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (s *TokenStore) getToken(ctx context.Context, key string) (string, error) {
	v, err := s.get(ctx, key)
	if err != nil || v == "" || s.cipher == nil {
		return v, err
	}

	plain, err := s.cipher.Open(v)
	if err != nil {
		// Токен, который не расшифровать (другой ключ), равносилен отсутствию
		slog.Debug("stored token cannot be decrypted", "key", key, "error", err)
		return "", nil
	}
	return plain, nil
}

func (s *TokenStore) setToken(ctx context.Context, key, token string) error {
	if token == "" || s.cipher == nil {
		return s.set(ctx, key, token)
	}

	sealed, err := s.cipher.Seal(token)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", key, err)
	}
	return s.set(ctx, key, sealed)
}
