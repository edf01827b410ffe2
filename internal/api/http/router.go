package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/contractor-portal/internal/api/http/handlers"
	"github.com/spec-kit/contractor-portal/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Approvals      *handlers.ApprovalsHandler
	Profile        *handlers.ProfileHandler
	AuthMiddleware *auth.AuthMiddleware
	Gatherer       prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/verify-email", cfg.Users.VerifyEmail)

	app.Get("/me", cfg.AuthMiddleware.Handle, cfg.Profile.Me)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Get("/approvals", cfg.Approvals.Pending)
	admin.Post("/users/:id/approve", cfg.Approvals.ApproveUser)
	admin.Post("/users/:id/reject", cfg.Approvals.RejectUser)
	admin.Post("/contractors/:id/approve", cfg.Approvals.ApproveContractor)
	admin.Post("/contractors/:id/reject", cfg.Approvals.RejectContractor)
	admin.Post("/staging/:id/merge", cfg.Approvals.MergeStaging)
	admin.Post("/staging/:id/keep", cfg.Approvals.KeepStaging)
}
