package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/oishine/backoffice/internal/api/http/handlers"
	"github.com/oishine/backoffice/internal/auth"
	"github.com/oishine/backoffice/internal/domain"
	"github.com/oishine/backoffice/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Admins         *handlers.AdminsHandler
	Orders         *handlers.OrdersHandler
	Drivers        *handlers.DriversHandler
	Realtime       *handlers.RealtimeHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.Health != nil {
		app.Get("/health/live", cfg.Health.Live)
		app.Get("/health/ready", cfg.Health.Ready)
	}
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	api := app.Group("/api")

	if cfg.Orders != nil {
		api.Post("/orders", cfg.Orders.Create)
		api.Get("/orders/:id/track", cfg.Orders.Track)
	}

	protected := cfg.AuthMiddleware.Handle

	authGroup := api.Group("/admin/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/me", protected, cfg.Auth.Me)

	// Auth is attached per route so login and logout stay public.
	admin := api.Group("/admin")
	admin.Put("/profile", protected, cfg.Auth.UpdateProfile)
	admin.Put("/profile/password", protected, cfg.Auth.ChangePassword)

	if cfg.Admins != nil {
		admin.Get("/admins", protected, cfg.Admins.List)
		admin.Patch("/admins/:id/active", protected, auth.RequireRole(domain.AdminRoleSuperAdmin), cfg.Admins.SetActive)
	}
	if cfg.Orders != nil {
		admin.Get("/orders", protected, cfg.Orders.List)
		admin.Get("/orders/:id", protected, cfg.Orders.Get)
		admin.Patch("/orders/:id/status", protected, cfg.Orders.UpdateStatus)
		admin.Patch("/orders/:id/driver", protected, cfg.Orders.AssignDriver)
	}
	if cfg.Drivers != nil {
		admin.Get("/drivers", protected, cfg.Drivers.List)
		admin.Patch("/drivers/:id/status", protected, cfg.Drivers.UpdateStatus)
	}

	if cfg.Realtime != nil {
		app.Use("/ws", cfg.Realtime.Upgrade)
		app.Get("/ws", cfg.Realtime.Serve())
	}
}
