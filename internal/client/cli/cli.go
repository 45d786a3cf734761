package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/iudanet/masjidkeu/internal/client/api"
	"github.com/iudanet/masjidkeu/internal/client/auth"
	"github.com/iudanet/masjidkeu/internal/client/iocli"
	"github.com/iudanet/masjidkeu/internal/client/masterdata"
	"github.com/iudanet/masjidkeu/internal/client/session"
	pkgapi "github.com/iudanet/masjidkeu/pkg/api"
)

// SessionExpiredMessage is shown when the session can no longer be renewed
const SessionExpiredMessage = "Session expired, please run 'masjidkeu login'"

var (
	// ErrUsage is returned for missing or malformed command arguments
	ErrUsage = errors.New("invalid usage")

	// ErrUnknownCommand is returned for a command the client does not have
	ErrUnknownCommand = errors.New("unknown command")

	// ErrIdleLogout is returned when the session was ended for inactivity
	ErrIdleLogout = errors.New("logged out after inactivity")
)

// AuthService is the part of auth.Service the commands use
type AuthService interface {
	LoginAs(ctx context.Context, creds auth.Credentials, realm session.Realm) (json.RawMessage, error)
	Logout(ctx context.Context) error
	RefreshToken(ctx context.Context) (string, error)
}

// SessionStore is the part of session.TokenStore the commands read
type SessionStore interface {
	Snapshot(ctx context.Context) (*session.Session, error)
	Menus(ctx context.Context) (*session.Menus, error)
	IdleExpired(ctx context.Context, now time.Time, timeout time.Duration) (bool, error)
	Clear(ctx context.Context) error
}

// MasterData is the reference table client
type MasterData interface {
	List(ctx context.Context, resource masterdata.Resource, params masterdata.ListParams) (*masterdata.ListResult, error)
	Create(ctx context.Context, resource masterdata.Resource, item pkgapi.MasterItem) (pkgapi.MasterItem, error)
	Delete(ctx context.Context, resource masterdata.Resource, id string) error
}

// Deps are the collaborators of Cli
type Deps struct {
	IO          iocli.IO
	Auth        AuthService
	Store       SessionStore
	MasterData  MasterData
	Transport   api.Doer
	Getenv      func(string) string
	Now         func() time.Time
	IdleTimeout time.Duration
}

type Cli struct {
	io          iocli.IO
	authService AuthService
	store       SessionStore
	masterData  MasterData
	// transport: авторизованный транспорт (Interceptor) для команды request
	transport   api.Doer
	getenv      func(string) string
	now         func() time.Time
	idleTimeout time.Duration
}

func New(d Deps) *Cli {
	c := &Cli{
		io:          d.IO,
		authService: d.Auth,
		store:       d.Store,
		masterData:  d.MasterData,
		transport:   d.Transport,
		getenv:      d.Getenv,
		now:         d.Now,
		idleTimeout: d.IdleTimeout,
	}
	if c.getenv == nil {
		c.getenv = os.Getenv
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Run executes a command, args[0] is the command name
func (c *Cli) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		c.PrintUsage()
		return fmt.Errorf("%w: no command given", ErrUsage)
	}

	command, rest := args[0], args[1:]

	// Команды без сессии
	switch command {
	case "help":
		c.PrintUsage()
		return nil
	case "login":
		return c.runLogin(ctx, rest)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	}

	run, ok := map[string]func(context.Context, []string) error{
		"refresh": func(ctx context.Context, _ []string) error { return c.runRefresh(ctx) },
		"request": c.runRequest,
		"list":    c.runList,
		"create":  c.runCreate,
		"delete":  c.runDelete,
		"menus":   func(ctx context.Context, _ []string) error { return c.runMenus(ctx) },
	}[command]
	if !ok {
		c.PrintUsage()
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}

	if err := c.checkIdle(ctx); err != nil {
		return err
	}
	return run(ctx, rest)
}

// HandleSessionExpired is registered on the interceptor and tells the user to log in again
func (c *Cli) HandleSessionExpired(err error) {
	c.io.Println()
	c.io.Println(SessionExpiredMessage)
}

// checkIdle выполняет logout, если сессия простаивала дольше idleTimeout
func (c *Cli) checkIdle(ctx context.Context) error {
	expired, err := c.store.IdleExpired(ctx, c.now(), c.idleTimeout)
	if err != nil {
		return fmt.Errorf("failed to check session activity: %w", err)
	}
	if !expired {
		return nil
	}

	// Logout отзывает refresh token на сервере и всегда очищает локальную сессию
	if err := c.authService.Logout(ctx); err != nil {
		return fmt.Errorf("failed to end idle session: %w", err)
	}

	c.io.Printf("No activity for more than %s, you have been logged out.\n", c.idleTimeout)
	c.io.Println(SessionExpiredMessage)
	return ErrIdleLogout
}

func (c *Cli) PrintUsage() {
	c.io.Println("Masjidkeu admin client")
	c.io.Println()
	c.io.Println("Usage:")
	c.io.Println("  masjidkeu [OPTIONS] COMMAND [ARGS]")
	c.io.Println()
	c.io.Println("Options:")
	c.io.Println("  -version                 Show version information")
	c.io.Println("  -server URL              Server URL (default: http://localhost:3000)")
	c.io.Println("  -db PATH                 Path to local session database (default: masjidkeu-client.db)")
	c.io.Println("  -store bolt|sqlite       Session storage backend (default: bolt)")
	c.io.Println("  -log-level LEVEL         debug, info, warn, error (default: info)")
	c.io.Println()
	c.io.Println("Commands:")
	c.io.Println("  login [-realm admin|level] [-email EMAIL]   Login to server")
	c.io.Println("  logout                                       Logout and remove local session")
	c.io.Println("  status                                       Show session status")
	c.io.Println("  refresh                                      Renew the access token")
	c.io.Println("  request METHOD PATH [JSON]                   Send an authenticated request")
	c.io.Println("  list RESOURCE [OPTIONS] [SEARCH]             List regional, daerah or tingkat")
	c.io.Println("  create RESOURCE [-regional ID] KODE NAMA     Add a reference table row")
	c.io.Println("  delete RESOURCE ID                           Delete a reference table row")
	c.io.Println("  menus                                        Show menus received at login")
	c.io.Println()
	c.io.Println("Environment:")
	c.io.Println("  MASJIDKEU_API_BASE_URL   Server URL (falls back to VITE_API_BASE_URL)")
	c.io.Println("  MASJIDKEU_PASSWORD       Password for non-interactive login")
	c.io.Println("  MASJIDKEU_SESSION_KEY    Encrypt stored tokens with this passphrase")
	c.io.Println("  MASJIDKEU_IDLE_TIMEOUT   Logout after inactivity (default: 30m, 0 disables)")
	c.io.Println()
	c.io.Println("Examples:")
	c.io.Println("  masjidkeu login -email bendahara@masjid.id")
	c.io.Println("  masjidkeu list regional -page 2 jawa")
	c.io.Println("  masjidkeu request GET /api/users/me")
	c.io.Println(`  masjidkeu request POST /api/regional '{"kode":"R1","nama":"Jawa"}'`)
}
