package cli

import (
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	statusTmpl     = template.Must(template.New("status").Parse(statusTemplate))
	listFooterTmpl = template.Must(template.New("listFooter").Parse(listFooterTemplate))
)

type statusView struct {
	DisplayName  string
	Realm        string
	ExpiresAt    string
	Remaining    string
	LastActivity string
	IdleLeft     string
	HasExpiry    bool
	Expired      bool
	HasRefresh   bool
}

func (c *Cli) runStatus(ctx context.Context) error {
	sess, err := c.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	if !sess.Authenticated() {
		c.io.Println("=== Session Status ===")
		c.io.Println()
		c.io.Println("Status: Not authenticated")
		c.io.Println()
		c.io.Println("Run 'masjidkeu login' to authenticate.")
		return nil
	}

	now := c.now()
	view := statusView{
		DisplayName: sess.DisplayName,
		Realm:       string(sess.Realm),
		HasRefresh:  sess.RefreshToken != "",
	}

	if exp, ok := tokenExpiry(sess.AccessToken); ok {
		view.HasExpiry = true
		view.ExpiresAt = exp.Format(time.RFC3339)
		remaining := exp.Sub(now)
		view.Expired = remaining <= 0
		view.Remaining = remaining.Round(time.Second).String()
	}

	if !sess.LastActivity.IsZero() {
		view.LastActivity = sess.LastActivity.Format(time.RFC3339)
		if c.idleTimeout > 0 {
			if left := c.idleTimeout - now.Sub(sess.LastActivity); left > 0 {
				view.IdleLeft = left.Round(time.Second).String()
			}
		}
	}

	return statusTmpl.Execute(c.io, view)
}

// tokenExpiry читает exp из JWT без проверки подписи: ключа у клиента нет,
// значение используется только для отображения
func tokenExpiry(token string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
