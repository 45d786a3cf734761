package auth

import (
	"context"
	"time"

	"github.com/iudanet/masjidkeu/internal/client/session"
)

// TokenStore is the part of session.TokenStore the auth layer needs
type TokenStore interface {
	AccessToken(ctx context.Context) (string, error)
	SetAccessToken(ctx context.Context, token string) error
	RefreshToken(ctx context.Context) (string, error)
	SetRefreshToken(ctx context.Context, token string) error
	Realm(ctx context.Context) (session.Realm, error)
	SetRealm(ctx context.Context, realm session.Realm) error
	SetDisplayName(ctx context.Context, name string) error
	SetMenus(ctx context.Context, menus *session.Menus) error
	Touch(ctx context.Context, now time.Time) error
	IsAuthenticated(ctx context.Context) bool
	Clear(ctx context.Context) error
}

// Compile-time check that session.TokenStore satisfies TokenStore
var _ TokenStore = (*session.TokenStore)(nil)
