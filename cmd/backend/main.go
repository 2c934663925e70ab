package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	audioimpl "github.com/foxseedlab/speakscore/external/audio"
	configloader "github.com/foxseedlab/speakscore/external/config"
	"github.com/foxseedlab/speakscore/external/httpapi"
	observeimpl "github.com/foxseedlab/speakscore/external/observe"
	"github.com/foxseedlab/speakscore/external/prompts"
	repositoryimpl "github.com/foxseedlab/speakscore/external/repository"
	transcriberimpl "github.com/foxseedlab/speakscore/external/transcriber"
	webhookimpl "github.com/foxseedlab/speakscore/external/webhook"
	workspaceimpl "github.com/foxseedlab/speakscore/external/workspace"
	"github.com/foxseedlab/speakscore/internal/config"
	"github.com/foxseedlab/speakscore/internal/session"
	"github.com/samber/do/v2"
	"golang.org/x/sync/errgroup"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env, "transcriber", cfg.TranscriberBackend)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	if err := run(injector); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	observeimpl.RegisterDI(injector)
	repositoryimpl.RegisterDI(injector)
	prompts.RegisterDI(injector)
	workspaceimpl.RegisterDI(injector)
	audioimpl.RegisterDI(injector)
	transcriberimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	session.RegisterDI(injector)
	httpapi.RegisterDI(injector)

	return injector
}

func run(injector do.Injector) error {
	server, err := do.Invoke[*httpapi.Server](injector)
	if err != nil {
		return err
	}
	store, err := do.Invoke[*session.MemoryStore](injector)
	if err != nil {
		return err
	}
	recognizer := do.MustInvoke[transcriberimpl.Recognizer](injector)
	telemetry := do.MustInvoke[*observeimpl.Telemetry](injector)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := telemetry.Shutdown(ctx); err != nil {
			slog.Warn("meter provider shutdown failed", "error", err)
		}
		if c, ok := recognizer.(io.Closer); ok {
			if err := c.Close(); err != nil {
				slog.Warn("recognizer close failed", "error", err)
			}
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx)
	})
	g.Go(func() error {
		return store.Run(ctx, sweepInterval)
	})
	slog.Info("startup: serving")
	return g.Wait()
}
