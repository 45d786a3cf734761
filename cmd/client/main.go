package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/common-nighthawk/go-figure"

	"github.com/iudanet/masjidkeu/internal/client/api"
	"github.com/iudanet/masjidkeu/internal/client/auth"
	"github.com/iudanet/masjidkeu/internal/client/cli"
	"github.com/iudanet/masjidkeu/internal/client/iocli"
	"github.com/iudanet/masjidkeu/internal/client/masterdata"
	"github.com/iudanet/masjidkeu/internal/client/session"
	"github.com/iudanet/masjidkeu/internal/client/storage"
	"github.com/iudanet/masjidkeu/internal/client/storage/boltdb"
	"github.com/iudanet/masjidkeu/internal/client/storage/sqlite"
	"github.com/iudanet/masjidkeu/internal/config"
	"github.com/iudanet/masjidkeu/internal/logger"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	getenv, err := config.EnvSource(".env.local", ".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	cfg, err := config.Load(os.Args[1:], getenv, os.Stderr)
	if errors.Is(err, config.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// Show version and exit if requested
	if cfg.ShowVersion {
		printVersion()
		return 0
	}

	log, err := logger.Setup(os.Stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if cfg.InsecureTransport() {
		slog.Debug("using plain HTTP, tokens are sent unencrypted", "server", cfg.ServerURL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := openStorage(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		return 1
	}
	defer func() {
		if err := kv.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	store := session.NewTokenStore(kv)
	if cfg.SessionKey != "" {
		if err := store.EnableEncryption(ctx, cfg.SessionKey); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to enable session encryption: %v\n", err)
			return 1
		}
	}

	// Login/refresh/logout идут напрямую в транспорт, остальное через перехватчик
	transport := api.NewClient(cfg.ServerURL,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithLogger(log),
	)
	interceptor := auth.NewInterceptor(transport, store, cfg.Endpoints,
		auth.WithRefreshTimeout(cfg.RefreshTimeout))

	c := cli.New(cli.Deps{
		IO:          iocli.NewStdio(),
		Auth:        auth.NewService(transport, store, cfg.Endpoints),
		Store:       store,
		MasterData:  masterdata.NewClient(interceptor),
		Transport:   interceptor,
		Getenv:      getenv,
		IdleTimeout: cfg.IdleTimeout,
	})
	interceptor.OnSessionExpired(c.HandleSessionExpired)

	if err := c.Run(ctx, cfg.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.KeyValueStorage, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		return sqlite.New(ctx, cfg.DBPath)
	default:
		return boltdb.New(ctx, cfg.DBPath)
	}
}

func printVersion() {
	figure.NewFigure("masjidkeu", "cybermedium", true).Print()
	fmt.Println()
	fmt.Printf("Masjidkeu Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
