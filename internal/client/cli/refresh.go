package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/iudanet/masjidkeu/internal/client/api"
	"github.com/iudanet/masjidkeu/internal/client/auth"
)

func (c *Cli) runRefresh(ctx context.Context) error {
	if _, err := c.authService.RefreshToken(ctx); err != nil {
		if errors.Is(err, auth.ErrNoRefreshToken) {
			return errors.New("no refresh token stored, please run 'masjidkeu login'")
		}

		// Сервер отверг refresh token: сессию не продлить, как и в перехватчике
		if api.IsUnauthorized(err) || errors.Is(err, auth.ErrNoAccessToken) {
			if clearErr := c.store.Clear(ctx); clearErr != nil {
				slog.Error("failed to clear session", "error", clearErr)
			}
			c.HandleSessionExpired(err)
			return &auth.RefreshError{Err: err}
		}
		return err
	}

	c.io.Println("✓ Access token refreshed")
	return nil
}
