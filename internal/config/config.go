// Package config collects the client settings from flags, environment and .env files
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/iudanet/masjidkeu/internal/client/auth"
	"github.com/iudanet/masjidkeu/internal/client/session"
)

// Значения по умолчанию
const (
	DefaultServerURL      = "http://localhost:3000"
	DefaultDBPath         = "masjidkeu-client.db"
	DefaultLogLevel       = "info"
	DefaultRequestTimeout = 30 * time.Second
	DefaultRefreshTimeout = 15 * time.Second
	DefaultIdleTimeout    = 30 * time.Minute
)

// Типы локального хранилища сессии
const (
	StoreBolt   = "bolt"
	StoreSQLite = "sqlite"
)

// Переменные окружения
const (
	EnvServerURL        = "MASJIDKEU_API_BASE_URL"
	EnvViteServerURL    = "VITE_API_BASE_URL"
	EnvDBPath           = "MASJIDKEU_DB"
	EnvStore            = "MASJIDKEU_STORE"
	EnvLogLevel         = "MASJIDKEU_LOG_LEVEL"
	EnvSessionKey       = "MASJIDKEU_SESSION_KEY"
	EnvLoginPath        = "MASJIDKEU_LOGIN_PATH"
	EnvLogoutPath       = "MASJIDKEU_LOGOUT_PATH"
	EnvRefreshPath      = "MASJIDKEU_REFRESH_PATH"
	EnvRefreshPathLevel = "MASJIDKEU_REFRESH_PATH_LEVEL"
	EnvRequestTimeout   = "MASJIDKEU_REQUEST_TIMEOUT"
	EnvRefreshTimeout   = "MASJIDKEU_REFRESH_TIMEOUT"
	EnvIdleTimeout      = "MASJIDKEU_IDLE_TIMEOUT"
)

// ErrHelp is returned when -h or -help was passed
var ErrHelp = flag.ErrHelp

// Config holds everything the client binary needs to start
type Config struct {
	Endpoints auth.Endpoints

	ServerURL string
	DBPath    string
	Store     string
	LogLevel  string
	// SessionKey включает шифрование токенов на диске; только из окружения
	SessionKey string

	// Args are the command and its arguments left after the global flags
	Args []string

	RequestTimeout time.Duration
	RefreshTimeout time.Duration
	// IdleTimeout ends a session that saw no successful request for this long, 0 disables
	IdleTimeout time.Duration

	ShowVersion bool
}

// Getenv looks up a single variable, os.Getenv in production
type Getenv func(key string) string

// EnvSource returns a lookup that prefers the process environment and falls back
// to the given dotenv files. Missing files are skipped, like godotenv.Load does.
func EnvSource(files ...string) (Getenv, error) {
	fromFiles := map[string]string{}
	for _, file := range files {
		values, err := godotenv.Read(file)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		// Первый файл в списке главнее
		for k, v := range values {
			if _, ok := fromFiles[k]; !ok {
				fromFiles[k] = v
			}
		}
	}

	return func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return fromFiles[key]
	}, nil
}

// Load parses global flags from args and fills the rest from env.
// Priority: flag > env > default.
func Load(args []string, getenv Getenv, output io.Writer) (*Config, error) {
	fs := flag.NewFlagSet("masjidkeu", flag.ContinueOnError)
	fs.SetOutput(output)

	showVersion := fs.Bool("version", false, "Show version information")
	flagServer := fs.String("server", "", "Server URL (default: "+DefaultServerURL+" or "+EnvServerURL+" env)")
	flagDB := fs.String("db", "", "Path to local session database (default: "+DefaultDBPath+")")
	flagStore := fs.String("store", "", "Session storage: bolt or sqlite (default: bolt)")
	flagLogLevel := fs.String("log-level", "", "Log level: debug, info, warn, error (default: info)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		ShowVersion: *showVersion,
		Args:        fs.Args(),
		ServerURL: getConfig(*flagServer, getenv, DefaultServerURL,
			EnvServerURL, EnvViteServerURL),
		DBPath:     getConfig(*flagDB, getenv, DefaultDBPath, EnvDBPath),
		Store:      strings.ToLower(getConfig(*flagStore, getenv, StoreBolt, EnvStore)),
		LogLevel:   getConfig(*flagLogLevel, getenv, DefaultLogLevel, EnvLogLevel),
		SessionKey: getenv(EnvSessionKey),
	}

	var err error
	if cfg.RequestTimeout, err = getDuration(getenv, EnvRequestTimeout, DefaultRequestTimeout); err != nil {
		return nil, err
	}
	if cfg.RefreshTimeout, err = getDuration(getenv, EnvRefreshTimeout, DefaultRefreshTimeout); err != nil {
		return nil, err
	}
	if cfg.IdleTimeout, err = getDuration(getenv, EnvIdleTimeout, DefaultIdleTimeout); err != nil {
		return nil, err
	}

	cfg.Endpoints = auth.DefaultEndpoints()
	cfg.Endpoints.Login = getConfig("", getenv, auth.DefaultLoginPath, EnvLoginPath)
	cfg.Endpoints.Logout = getConfig("", getenv, auth.DefaultLogoutPath, EnvLogoutPath)
	adminRefresh := getConfig("", getenv, auth.DefaultRefreshPath, EnvRefreshPath)
	cfg.Endpoints.Refresh[session.RealmAdmin] = adminRefresh
	cfg.Endpoints.Refresh[session.RealmLevel] = getConfig("", getenv, adminRefresh, EnvRefreshPathLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail late with a confusing error
func (c *Config) Validate() error {
	if err := validateServerURL(c.ServerURL); err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	if c.Store != StoreBolt && c.Store != StoreSQLite {
		return fmt.Errorf("unknown store %q (expected %s or %s)", c.Store, StoreBolt, StoreSQLite)
	}

	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("database path cannot be empty")
	}

	paths := map[string]string{
		"login path":  c.Endpoints.Login,
		"logout path": c.Endpoints.Logout,
	}
	for realm, p := range c.Endpoints.Refresh {
		paths[string(realm)+" refresh path"] = p
	}
	for name, p := range paths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%s must start with '/', got %q", name, p)
		}
	}

	if c.RequestTimeout <= 0 || c.RefreshTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if c.IdleTimeout < 0 {
		return errors.New("idle timeout cannot be negative")
	}

	return nil
}

// InsecureTransport reports whether tokens travel over plain HTTP
func (c *Config) InsecureTransport() bool {
	return strings.HasPrefix(strings.ToLower(c.ServerURL), "http://")
}

// getConfig returns value with priority: flag > env (in order) > default
func getConfig(flagValue string, getenv Getenv, defaultValue string, envKeys ...string) string {
	if flagValue != "" {
		return flagValue
	}
	for _, key := range envKeys {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
	}
	return defaultValue
}

func getDuration(getenv Getenv, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return fallback, nil
	}
	// "0" без единицы измерения тоже допустим
	if raw == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// validateServerURL validates that the server URL is properly formatted
func validateServerURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("server URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got: %s", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("URL must include a host")
	}

	return nil
}
