package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/spec-kit/cbt-dashboard/internal/auth"
	"github.com/spec-kit/cbt-dashboard/internal/cli"
	"github.com/spec-kit/cbt-dashboard/internal/config"
	"github.com/spec-kit/cbt-dashboard/internal/events"
	"github.com/spec-kit/cbt-dashboard/internal/observability"
	"github.com/spec-kit/cbt-dashboard/internal/persistence"
	"github.com/spec-kit/cbt-dashboard/internal/repository"
	"github.com/spec-kit/cbt-dashboard/internal/service"
)

func main() {
	os.Exit(run())
}

func run() int {
	args := os.Args[1:]
	if code, done := cli.Preflight(args, os.Stdout, os.Stderr); done {
		return code
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return cli.ExitError
	}

	// Operator output goes to stdout; only warnings and errors are logged.
	cfg.Logger.Level = "warn"
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return cli.ExitError
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect postgres", zap.Error(err))
		return cli.ExitError
	}
	defer pg.Close()

	dispatcher := events.NewInMemoryDispatcher()
	service.NewNotificationService(dispatcher, service.NewLogMailer(cfg.Notification.EmailFrom, logger), logger, cfg.Notification).RegisterHandlers()

	admin := service.NewAdminService(
		repository.NewUserRepository(pg.PoolHandle()),
		auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		dispatcher,
		logger,
	)

	return cli.Run(ctx, args, os.Stdout, os.Stderr, cli.Deps{
		Admin:    admin,
		Password: cli.PromptPassword(os.Stderr),
	})
}
