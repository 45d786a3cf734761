package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/iudanet/masjidkeu/internal/client/api"
	"github.com/iudanet/masjidkeu/internal/client/session"
	pkgapi "github.com/iudanet/masjidkeu/pkg/api"
)

// Пути по умолчанию
const (
	DefaultLoginPath   = "/api/users/login"
	DefaultRefreshPath = "/api/auth/refresh"
	DefaultLogoutPath  = "/api/auth/logout"
)

// Endpoints holds the auth paths of the backend.
// Refresh is selected by the stored realm.
type Endpoints struct {
	Refresh map[session.Realm]string
	Login   string
	Logout  string
}

// DefaultEndpoints returns the paths used by the production backend.
// Both realms refresh through /api/auth/refresh.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:  DefaultLoginPath,
		Logout: DefaultLogoutPath,
		Refresh: map[session.Realm]string{
			session.RealmAdmin: DefaultRefreshPath,
			session.RealmLevel: DefaultRefreshPath,
		},
	}
}

// RefreshPath returns the refresh endpoint for realm, falling back to the admin one
func (e Endpoints) RefreshPath(realm session.Realm) string {
	if p := e.Refresh[realm]; p != "" {
		return p
	}
	if p := e.Refresh[session.RealmAdmin]; p != "" {
		return p
	}
	return DefaultRefreshPath
}

// TokenPair is what a successful refresh yields.
// RefreshToken is empty when the server did not rotate it.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// authHeaders повторяют заголовки браузерной версии для auth эндпоинтов
func authHeaders() http.Header {
	return http.Header{api.HeaderRequestedWith: []string{"XMLHttpRequest"}}
}

// exchangeRefreshToken обменивает refresh token на новый access token.
// Запрос идёт напрямую в транспорт с SkipAuth, минуя перехватчик.
func exchangeRefreshToken(ctx context.Context, transport api.Doer, path, refreshToken string) (TokenPair, error) {
	var payload map[string]any
	err := transport.Do(ctx, &api.Request{
		Method:   http.MethodPost,
		Path:     path,
		Body:     pkgapi.RefreshRequest{RefreshToken: refreshToken},
		Headers:  authHeaders(),
		SkipAuth: true,
	}, &payload)
	if err != nil {
		return TokenPair{}, fmt.Errorf("refresh request failed: %w", err)
	}

	pair := TokenPair{
		AccessToken:  PickString(payload, AccessTokenKeys),
		RefreshToken: PickString(payload, RefreshTokenKeys),
	}
	if pair.AccessToken == "" {
		return TokenPair{}, ErrNoAccessToken
	}

	return pair, nil
}

// storeTokenPair сохраняет новый access token и, если сервер его прислал, новый refresh token
func storeTokenPair(ctx context.Context, store TokenStore, pair TokenPair) error {
	if err := store.SetAccessToken(ctx, pair.AccessToken); err != nil {
		return fmt.Errorf("failed to save access token: %w", err)
	}
	if pair.RefreshToken != "" {
		if err := store.SetRefreshToken(ctx, pair.RefreshToken); err != nil {
			return fmt.Errorf("failed to save refresh token: %w", err)
		}
	}
	return nil
}
