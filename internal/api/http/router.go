package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/cbt-dashboard/internal/api/http/handlers"
	"github.com/spec-kit/cbt-dashboard/internal/auth"
	"github.com/spec-kit/cbt-dashboard/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Auth          *handlers.AuthHandler
	Profile       *handlers.ProfileHandler
	Academic      *handlers.AcademicHandler
	PracticeTests *handlers.PracticeTestsHandler
	Pages         *handlers.PagesHandler
	Sessions      *auth.SessionMiddleware
	Guard         *auth.Guard
	Metrics       *observability.Metrics
	LoginPath     string
	Unauthorized  string
	DashboardPath string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	// Every route below sees the resolved session, if any.
	app.Use(cfg.Sessions.Handle)

	app.Get(cfg.LoginPath, cfg.Pages.Login)
	app.Get(cfg.Unauthorized, cfg.Pages.Unauthorized)
	app.Get(cfg.DashboardPath, cfg.Guard.Page(auth.AnyAuthenticated), cfg.Pages.Dashboard)
	app.Get("/admin", cfg.Guard.Page(auth.AdminOnly), cfg.Pages.Admin)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Post("/password/forgot", cfg.Auth.ForgotPassword)
	authGroup.Post("/password/reset", cfg.Auth.ResetPassword)
	authGroup.Get("/oauth/:provider", cfg.Auth.OAuthStart)
	authGroup.Get("/oauth/:provider/callback", cfg.Auth.OAuthCallback)

	api := app.Group("/api")
	api.Get("/academic", cfg.Academic.List)

	signedIn := cfg.Guard.API(auth.AnyAuthenticated)
	adminOnly := cfg.Guard.API(auth.AdminOnly)

	api.Get("/profile", signedIn, cfg.Profile.Get)
	api.Patch("/profile", signedIn, cfg.Profile.Update)
	api.Post("/profile/avatar", signedIn, cfg.Profile.AvatarUpload)

	tests := api.Group("/practice-tests", signedIn)
	tests.Get("/", cfg.PracticeTests.List)
	tests.Get("/:id", cfg.PracticeTests.Get)
	tests.Post("/", adminOnly, cfg.PracticeTests.Create)
	tests.Put("/:id", adminOnly, cfg.PracticeTests.Update)
	tests.Delete("/:id", adminOnly, cfg.PracticeTests.Delete)
}
