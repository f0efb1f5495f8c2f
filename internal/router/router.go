package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pau-bookit/bookit-api/internal/config"
	"github.com/pau-bookit/bookit-api/internal/handler"
	"github.com/pau-bookit/bookit-api/internal/middleware"
	"github.com/pau-bookit/bookit-api/internal/models"
	"github.com/pau-bookit/bookit-api/internal/observability"
	"github.com/pau-bookit/bookit-api/internal/utils"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler             *handler.AuthHandler
	ReservationHandler      *handler.ReservationHandler
	AdminReservationHandler *handler.AdminReservationHandler
	ActivityHandler         *handler.ActivityHandler
	RoomHandler             *handler.RoomHandler
	State                   handler.BookingState
	Authenticator           middleware.TokenResolver
	LoginRateLimit          int
	SubmitRateLimit         int
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.State))

	authenticate := func(c *fiber.Ctx) error {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication unavailable")
	}
	if deps.Authenticator != nil {
		authenticate = middleware.Authenticate(deps.Authenticator)
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		deps.AuthHandler.RegisterPublic(auth, middleware.RateLimit("login", deps.LoginRateLimit, time.Minute))
		deps.AuthHandler.RegisterProtected(auth.Group("", authenticate))
	}

	if deps.RoomHandler != nil {
		rooms := api.Group("/rooms", authenticate)
		deps.RoomHandler.RegisterBoard(rooms)
		deps.RoomHandler.Register(rooms)

		deps.RoomHandler.RegisterFacility(api.Group("/facility", authenticate))
	}

	if deps.ReservationHandler != nil {
		reservations := api.Group("/reservations",
			authenticate,
			middleware.RequireRole(models.RoleStudent, models.RoleFaculty, models.RoleAdmin),
		)
		submitLimit := middleware.RateLimit("submit", deps.SubmitRateLimit, time.Minute)
		reservations.Use(func(c *fiber.Ctx) error {
			if c.Method() == fiber.MethodPost {
				return submitLimit(c)
			}
			return c.Next()
		})
		deps.ReservationHandler.Register(reservations)
	}

	admin := api.Group("/admin", authenticate, middleware.RequireRole(models.RoleAdmin))
	if deps.AdminReservationHandler != nil {
		deps.AdminReservationHandler.Register(admin.Group("/reservations"))
		deps.AdminReservationHandler.RegisterDashboard(admin)
	}
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(admin.Group("/activity"))
	}
}
