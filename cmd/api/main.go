package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/cbt-dashboard/internal/api/http"
	"github.com/spec-kit/cbt-dashboard/internal/api/http/handlers"
	"github.com/spec-kit/cbt-dashboard/internal/auth"
	"github.com/spec-kit/cbt-dashboard/internal/config"
	"github.com/spec-kit/cbt-dashboard/internal/events"
	"github.com/spec-kit/cbt-dashboard/internal/observability"
	"github.com/spec-kit/cbt-dashboard/internal/persistence"
	"github.com/spec-kit/cbt-dashboard/internal/repository"
	"github.com/spec-kit/cbt-dashboard/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	healthDeps := map[string]handlers.Pinger{"postgres": pg}
	revocations := revocationStore(ctx, cfg, logger, healthDeps)

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	academicRepo := repository.NewAcademicRepository(pool)
	practiceTestRepo := repository.NewPracticeTestRepository(pool)

	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL())

	dispatcher := events.NewInMemoryDispatcher()
	mailer := service.NewLogMailer(cfg.Notification.EmailFrom, logger)
	service.NewNotificationService(dispatcher, mailer, logger, cfg.Notification).RegisterHandlers()

	authService, err := service.NewAuthService(service.AuthDependencies{
		Users:       userRepo,
		Hasher:      hasher,
		Tokens:      tokens,
		Revocations: revocations,
		Metrics:     metrics,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal("failed to init auth service", zap.Error(err))
	}
	resetService := service.NewPasswordResetService(userRepo, hasher, dispatcher, cfg.Auth.ResetTTL(), logger)

	var presigner service.ObjectPresigner
	if cfg.Storage.Enabled() {
		presigner, err = service.NewS3Presigner(ctx, cfg.Storage)
		if err != nil {
			logger.Fatal("failed to init object storage", zap.Error(err))
		}
	} else {
		logger.Info("object storage not configured; avatar uploads disabled")
	}
	avatarService := service.NewAvatarService(presigner, cfg.Storage.PresignTTL())
	profileService := service.NewProfileService(userRepo, avatarService, logger)
	academicService := service.NewAcademicService(academicRepo)
	practiceTestService := service.NewPracticeTestService(practiceTestRepo)

	oauth := auth.NewOAuthManager(cfg.OAuth)
	sessions := auth.NewSessionMiddleware(auth.NewSessionResolver(tokens, revocations), cfg.Auth.CookieName, logger)
	guard := auth.NewGuard(authService, cfg.App.LoginPath, cfg.App.UnauthorizedPath)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, healthDeps),
		Auth: handlers.NewAuthHandler(handlers.AuthHandlerConfig{
			Auth:          authService,
			Resets:        resetService,
			OAuth:         oauth,
			Cookie:        handlers.CookieSettings{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure},
			LoginPath:     cfg.App.LoginPath,
			DashboardPath: cfg.App.DashboardPath,
			Logger:        logger,
		}),
		Profile:       handlers.NewProfileHandler(profileService, avatarService),
		Academic:      handlers.NewAcademicHandler(academicService),
		PracticeTests: handlers.NewPracticeTestsHandler(practiceTestService, authService),
		Pages:         handlers.NewPagesHandler(profileService, practiceTestService, oauth.Providers()),
		Sessions:      sessions,
		Guard:         guard,
		Metrics:       metrics,
		LoginPath:     cfg.App.LoginPath,
		Unauthorized:  cfg.App.UnauthorizedPath,
		DashboardPath: cfg.App.DashboardPath,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

// revocationStore prefers redis. Development falls back to process memory when redis is unreachable.
func revocationStore(ctx context.Context, cfg *config.Config, logger *zap.Logger, healthDeps map[string]handlers.Pinger) auth.RevocationStore {
	if cfg.Redis.Addr == "" {
		if !cfg.App.IsDevelopment() {
			logger.Fatal("REDIS_ADDR is required outside development")
		}
		logger.Warn("redis not configured; revoked sessions are kept in memory")
		return auth.NewMemoryRevocationStore()
	}

	rdb := persistence.NewRedis(ctx, cfg.Redis, logger)
	if err := rdb.Ping(ctx); err != nil && cfg.App.IsDevelopment() {
		rdb.Close()
		logger.Warn("redis unreachable; revoked sessions are kept in memory", zap.Error(err))
		return auth.NewMemoryRevocationStore()
	}
	healthDeps["redis"] = rdb
	return auth.NewRedisRevocationStore(rdb.Client)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
