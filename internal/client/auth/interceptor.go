package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/iudanet/masjidkeu/internal/client/api"
)

// DefaultRefreshTimeout ограничивает один вызов refresh эндпоинта
const DefaultRefreshTimeout = 15 * time.Second

// refreshKey единственный ключ singleflight, один refresh на Interceptor
const refreshKey = "refresh"

// Interceptor attaches the bearer token to outgoing requests and renews the
// access token when the server answers 401.
//
// At most one refresh call is in flight per Interceptor. Requests that get 401
// while it runs wait for its result and are retried exactly once with the new
// token. When the refresh fails the session is cleared and every waiter gets
// a *RefreshError.
type Interceptor struct {
	transport      api.Doer
	store          TokenStore
	now            func() time.Time
	endpoints      Endpoints
	group          singleflight.Group
	onExpired      []func(error)
	refreshTimeout time.Duration
	mu             sync.Mutex
}

// Compile-time check that Interceptor can be used wherever a Doer is expected
var _ api.Doer = (*Interceptor)(nil)

// InterceptorOption configures Interceptor
type InterceptorOption func(*Interceptor)

// WithRefreshTimeout sets the timeout of the refresh call, zero keeps the default
func WithRefreshTimeout(timeout time.Duration) InterceptorOption {
	return func(i *Interceptor) {
		if timeout > 0 {
			i.refreshTimeout = timeout
		}
	}
}

// WithClock overrides time.Now for activity tracking
func WithClock(now func() time.Time) InterceptorOption {
	return func(i *Interceptor) {
		i.now = now
	}
}

// NewInterceptor wraps transport with bearer auth and refresh-on-401
func NewInterceptor(transport api.Doer, store TokenStore, endpoints Endpoints, opts ...InterceptorOption) *Interceptor {
	i := &Interceptor{
		transport:      transport,
		store:          store,
		endpoints:      endpoints,
		refreshTimeout: DefaultRefreshTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// OnSessionExpired registers fn to be called after a refresh failed and the
// session was cleared. Used by the UI layer to send the user back to login.
func (i *Interceptor) OnSessionExpired(fn func(err error)) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.onExpired = append(i.onExpired, fn)
}

// Do executes req with the current access token.
// A 401 triggers one refresh and one retry; a second 401 is returned as is.
func (i *Interceptor) Do(ctx context.Context, req *api.Request, result any) error {
	// Копия запроса: заголовки меняются между попытками, X-Request-ID общий
	attempt := req.Clone()
	if attempt.Headers.Get(api.HeaderRequestID) == "" {
		attempt.Headers.Set(api.HeaderRequestID, uuid.NewString())
	}

	if attempt.SkipAuth {
		attempt.Headers.Del(api.HeaderAuthorization)
		return i.transport.Do(ctx, attempt, result)
	}

	token, err := i.store.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to read access token: %w", err)
	}

	err = i.send(ctx, attempt, token, result)
	if err == nil {
		if token != "" {
			i.touch(ctx)
		}
		return nil
	}
	if !api.IsUnauthorized(err) {
		return err
	}

	slog.Debug("access token rejected, refreshing",
		"path", attempt.Path,
		"request_id", attempt.Headers.Get(api.HeaderRequestID),
	)

	newToken, err := i.renew(ctx, token)
	if err != nil {
		return err
	}

	// Единственный повтор: повторный 401 уходит вызывающему как есть
	if err := i.send(ctx, attempt, newToken, result); err != nil {
		return err
	}
	i.touch(ctx)
	return nil
}

func (i *Interceptor) send(ctx context.Context, req *api.Request, token string, result any) error {
	if token != "" {
		req.Headers.Set(api.HeaderAuthorization, "Bearer "+token)
	}
	return i.transport.Do(ctx, req, result)
}

// renew returns a fresh access token, joining the in-flight refresh if there is one.
// staleToken is the token the failed request was sent with.
func (i *Interceptor) renew(ctx context.Context, staleToken string) (string, error) {
	if token, done, err := i.settled(ctx, staleToken); done {
		return token, err
	}

	// Refresh не привязан к отмене первого запроса, у него свой таймаут.
	// Ожидающие уходят по своему ctx.
	refreshCtx := context.WithoutCancel(ctx)
	ch := i.group.DoChan(refreshKey, func() (any, error) {
		// Между проверкой выше и DoChan предыдущий refresh мог завершиться:
		// повторяем проверку внутри группы, до сетевого вызова
		if token, done, err := i.settled(refreshCtx, staleToken); done {
			return token, err
		}
		return i.refresh(refreshCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// settled reports whether the session already moved on from staleToken:
// another refresh stored a new token, or the session was cleared.
func (i *Interceptor) settled(ctx context.Context, staleToken string) (string, bool, error) {
	current, err := i.store.AccessToken(ctx)
	if err != nil {
		return "", false, nil
	}
	switch {
	case current != "" && current != staleToken:
		// Другой запрос уже успел обновить токен, refresh не нужен
		return current, true, nil
	case current == "" && staleToken != "":
		// Сессию уже очистили (неудачный refresh или logout)
		return "", true, &RefreshError{Err: ErrSessionCleared}
	}
	return "", false, nil
}

// refresh performs the single refresh call and updates or clears the session
func (i *Interceptor) refresh(ctx context.Context) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, i.refreshTimeout)
	defer cancel()

	pair, err := i.exchange(timeoutCtx)
	if err == nil {
		err = storeTokenPair(timeoutCtx, i.store, pair)
	}
	if err != nil {
		slog.Warn("token refresh failed, clearing session", "error", err)
		if clearErr := i.store.Clear(ctx); clearErr != nil {
			slog.Error("failed to clear session after refresh failure", "error", clearErr)
		}

		refreshErr := &RefreshError{Err: err}
		i.notifyExpired(refreshErr)
		return "", refreshErr
	}

	slog.Debug("access token refreshed", "rotated_refresh_token", pair.RefreshToken != "")
	return pair.AccessToken, nil
}

func (i *Interceptor) exchange(ctx context.Context) (TokenPair, error) {
	refreshToken, err := i.store.RefreshToken(ctx)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to read refresh token: %w", err)
	}
	if refreshToken == "" {
		return TokenPair{}, ErrNoRefreshToken
	}

	realm, err := i.store.Realm(ctx)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to read realm: %w", err)
	}

	return exchangeRefreshToken(ctx, i.transport, i.endpoints.RefreshPath(realm), refreshToken)
}

func (i *Interceptor) notifyExpired(err error) {
	i.mu.Lock()
	handlers := make([]func(error), len(i.onExpired))
	copy(handlers, i.onExpired)
	i.mu.Unlock()

	for _, fn := range handlers {
		fn(err)
	}
}

// touch отмечает активность сессии, ошибка не влияет на результат запроса
func (i *Interceptor) touch(ctx context.Context) {
	if err := i.store.Touch(ctx, i.now()); err != nil {
		slog.Debug("failed to record session activity", "error", err)
	}
}
