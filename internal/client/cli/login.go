package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/iudanet/masjidkeu/internal/client/auth"
	"github.com/iudanet/masjidkeu/internal/client/session"
)

// EnvPassword позволяет входить без интерактивного ввода (скрипты, CI)
const EnvPassword = "MASJIDKEU_PASSWORD"

func (c *Cli) runLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(c.io)
	realmFlag := fs.String("realm", string(session.RealmAdmin), "Token realm: admin or level")
	emailFlag := fs.String("email", "", "Account email")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	realm, err := session.ParseRealm(*realmFlag)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	c.io.Println("=== Login ===")
	c.io.Println()

	email := *emailFlag
	if email == "" {
		email, err = c.io.ReadInput("Email: ")
		if err != nil {
			return fmt.Errorf("failed to read email: %w", err)
		}
	}

	password, err := c.readPassword()
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("Authenticating...")

	if _, err := c.authService.LoginAs(ctx, auth.Credentials{Email: email, Password: password}, realm); err != nil {
		return err
	}

	sess, err := c.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	if !sess.Authenticated() {
		// Сервер ответил 2xx, но без токена (например, нужен второй фактор)
		return errors.New("server accepted the credentials but returned no access token")
	}

	c.io.Println()
	c.io.Println("✓ Login successful!")
	if sess.DisplayName != "" {
		c.io.Printf("Logged in as: %s\n", sess.DisplayName)
	}
	c.io.Printf("Realm: %s\n", sess.Realm)
	if sess.RefreshToken == "" {
		c.io.Println("⚠️  Server issued no refresh token, you will need to login again when the token expires.")
	}

	return nil
}

// readPassword: переменная окружения, затем интерактивный ввод
func (c *Cli) readPassword() (string, error) {
	if pw := c.getenv(EnvPassword); pw != "" {
		return pw, nil
	}

	pw, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return pw, nil
}
