package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Account        *handlers.AccountHandler
	Tickets        *handlers.TicketsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/verify-email", cfg.Auth.VerifyEmail)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/forgot-password", cfg.Auth.ForgotPassword)
	authGroup.Post("/reset-password", cfg.Auth.ResetPassword)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)

	me := app.Group("/me", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	me.Get("", cfg.Account.Me)
	me.Get("/settings", cfg.Account.GetSettings)
	me.Put("/settings", cfg.Account.UpdateSettings)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	tickets.Get("/options", cfg.Tickets.Options)
	tickets.Get("/my", cfg.Tickets.ListMyTickets)
	tickets.Get("", auth.RequireStaff(), cfg.Tickets.ListTickets)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", auth.RequireStaff(), cfg.Tickets.UpdateTicket)
	tickets.Get("/:id/notes", auth.RequireStaff(), cfg.Tickets.ListNotes)
	tickets.Post("/:id/notes", auth.RequireStaff(), cfg.Tickets.AddNote)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Post("/users", cfg.Admin.CreateUser)
	admin.Get("/agents", cfg.Admin.ListAgents)
	admin.Get("/reports/tickets", cfg.Admin.TicketReport)
}
