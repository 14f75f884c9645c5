package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tour-service/internal/api/http/handlers"
	"github.com/spec-kit/tour-service/internal/auth"
	"github.com/spec-kit/tour-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tours          *handlers.ToursHandler
	Cart           *handlers.CartHandler
	Problems       *handlers.ProblemsHandler
	AdminUsers     *handlers.AdminUsersHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	requireGuide := auth.RequireRole(domain.RoleGuide)
	requireTourist := auth.RequireRole(domain.RoleTourist)
	requireAdmin := auth.RequireRole(domain.RoleAdmin)
	requireModerator := auth.RequireRole(domain.RoleGuide, domain.RoleAdmin)

	tours := app.Group("/tours", cfg.AuthMiddleware.Handle)
	tours.Get("/published", requireTourist, cfg.Tours.ListPublished)
	tours.Get("/purchased", requireTourist, cfg.Tours.ListPurchased)
	tours.Post("/purchase", requireTourist, cfg.Tours.Purchase)
	tours.Post("/rate", requireTourist, cfg.Tours.RateTour)
	tours.Get("/report", requireGuide, cfg.Tours.MonthlyReport)
	tours.Post("/keypoints", requireGuide, cfg.Tours.AddKeyPoint)
	tours.Post("/:id/publish", requireGuide, cfg.Tours.PublishTour)
	tours.Post("/:id/cancel", requireGuide, cfg.Tours.CancelTour)
	tours.Post("/", requireGuide, cfg.Tours.CreateTour)
	tours.Get("/", requireGuide, cfg.Tours.ListOwnTours)

	cart := app.Group("/cart", cfg.AuthMiddleware.Handle, requireTourist)
	cart.Get("/", cfg.Cart.Get)
	cart.Post("/:tourId", cfg.Cart.Add)
	cart.Delete("/:tourId", cfg.Cart.Remove)

	problems := app.Group("/problems", cfg.AuthMiddleware.Handle)
	problems.Get("/mine", requireTourist, cfg.Problems.ListMine)
	problems.Get("/guide", requireGuide, cfg.Problems.ListForGuide)
	problems.Get("/events", requireAdmin, cfg.Problems.ListAllEvents)
	problems.Get("/:id/events", requireModerator, cfg.Problems.ListEvents)
	problems.Post("/:id/status", requireModerator, cfg.Problems.UpdateStatus)
	problems.Post("/", requireTourist, cfg.Problems.Report)
	problems.Get("/", requireAdmin, cfg.Problems.ListAll)

	users := app.Group("/users", cfg.AuthMiddleware.Handle, requireAdmin)
	users.Get("/malicious", cfg.AdminUsers.ListMalicious)
	users.Post("/:id/block", cfg.AdminUsers.Block)
	users.Post("/:id/unblock", cfg.AdminUsers.Unblock)
}
