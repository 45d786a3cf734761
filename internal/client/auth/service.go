package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/iudanet/masjidkeu/internal/client/api"
	"github.com/iudanet/masjidkeu/internal/client/session"
	"github.com/iudanet/masjidkeu/internal/validation"
	pkgapi "github.com/iudanet/masjidkeu/pkg/api"
)

// Credentials are used once for login and never persisted
type Credentials struct {
	Email    string
	Password string
}

// Service предоставляет функции авторизации.
// Работает напрямую с транспортом, а не через Interceptor,
// чтобы login/refresh не запускали автоматический refresh.
type Service struct {
	transport api.Doer
	store     TokenStore
	now       func() time.Time
	endpoints Endpoints
}

// NewService создает новый сервис авторизации
func NewService(transport api.Doer, store TokenStore, endpoints Endpoints) *Service {
	return &Service{
		transport: transport,
		store:     store,
		endpoints: endpoints,
		now:       time.Now,
	}
}

// Login выполняет аутентификацию пользователя.
// Токены, имя пользователя и меню ищутся в ответе под несколькими именами
// и сохраняются, если найдены. Возвращает ответ сервера как есть.
func (s *Service) Login(ctx context.Context, creds Credentials) (json.RawMessage, error) {
	// Валидация входных данных
	if err := validation.ValidateEmail(creds.Email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(creds.Password); err != nil {
		return nil, err
	}

	var raw json.RawMessage
	err := s.transport.Do(ctx, &api.Request{
		Method: http.MethodPost,
		Path:   s.endpoints.Login,
		Body: pkgapi.LoginRequest{
			Email:    strings.TrimSpace(creds.Email),
			Password: creds.Password,
		},
		Headers:  authHeaders(),
		SkipAuth: true,
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		// Ответ не объект: сохранять нечего, но сам login прошёл
		slog.Debug("login response is not a JSON object", "error", err)
		return raw, nil
	}

	if access := PickString(payload, AccessTokenKeys); access != "" {
		if err := s.store.SetAccessToken(ctx, access); err != nil {
			return nil, fmt.Errorf("failed to save access token: %w", err)
		}
	}
	if refresh := PickString(payload, RefreshTokenKeys); refresh != "" {
		if err := s.store.SetRefreshToken(ctx, refresh); err != nil {
			return nil, fmt.Errorf("failed to save refresh token: %w", err)
		}
	}

	// Необязательные поля: ошибки сохранения не мешают входу
	if name := ExtractUserName(payload); name != "" {
		if err := s.store.SetDisplayName(ctx, name); err != nil {
			slog.Debug("failed to save display name", "error", err)
		}
	}
	if menus := ExtractMenus(payload); menus != nil {
		if err := s.store.SetMenus(ctx, menus); err != nil {
			slog.Debug("failed to save menus", "error", err)
		}
	}
	if err := s.store.Touch(ctx, s.now()); err != nil {
		slog.Debug("failed to record session activity", "error", err)
	}

	return raw, nil
}

// LoginAs stores realm before logging in, so later refreshes use the matching endpoint
func (s *Service) LoginAs(ctx context.Context, creds Credentials, realm session.Realm) (json.RawMessage, error) {
	if err := s.store.SetRealm(ctx, realm); err != nil {
		return nil, fmt.Errorf("failed to save realm: %w", err)
	}
	return s.Login(ctx, creds)
}

// Logout выполняет выход из системы.
// Отзыв refresh token на сервере: best effort, локальная сессия удаляется всегда.
func (s *Service) Logout(ctx context.Context) error {
	refresh, err := s.store.RefreshToken(ctx)
	switch {
	case err != nil:
		slog.Debug("cannot read refresh token during logout", "error", err)
	case refresh != "":
		err := s.transport.Do(ctx, &api.Request{
			Method:   http.MethodPost,
			Path:     s.endpoints.Logout,
			Body:     pkgapi.RefreshRequest{RefreshToken: refresh},
			Headers:  authHeaders(),
			SkipAuth: true,
		}, nil)
		if err != nil {
			// Не прерываем процесс, если сервер недоступен
			slog.Warn("failed to logout on server", "error", err)
		}
	}

	// Всегда удаляем локальные данные, даже если ctx уже отменён
	if err := s.store.Clear(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("failed to delete local session: %w", err)
	}

	return nil
}

// RefreshToken обновляет access token используя refresh token.
// Без сохранённого refresh token сразу возвращает ErrNoRefreshToken.
func (s *Service) RefreshToken(ctx context.Context) (string, error) {
	refresh, err := s.store.RefreshToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read refresh token: %w", err)
	}
	if refresh == "" {
		return "", ErrNoRefreshToken
	}

	realm, err := s.store.Realm(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read realm: %w", err)
	}

	pair, err := exchangeRefreshToken(ctx, s.transport, s.endpoints.RefreshPath(realm), refresh)
	if err != nil {
		return "", err
	}

	if err := storeTokenPair(ctx, s.store, pair); err != nil {
		return "", err
	}

	return pair.AccessToken, nil
}

// AccessToken returns the current access token, "" when not logged in
func (s *Service) AccessToken(ctx context.Context) (string, error) {
	return s.store.AccessToken(ctx)
}

// IsAuthenticated reports whether an access token is stored
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	return s.store.IsAuthenticated(ctx)
}
