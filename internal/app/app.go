package app

import (
	"log"
	"strings"

	"logitrack-backend/internal/auth"
	"logitrack-backend/internal/config"
	"logitrack-backend/internal/inventory"
	"logitrack-backend/internal/models"
	"logitrack-backend/internal/movements"
	"logitrack-backend/internal/users"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// New builds the HTTP app: error translation, CORS and the full route table
// with its per-route profile sets.
func New(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	app.Post("/auth", auth.LoginHandler(cfg))

	protected := app.Group("", auth.JWTMiddleware(cfg))

	userRoutes := protected.Group("/users")
	userRoutes.Post("/", auth.RequireProfile(models.ProfileAdmin), users.CreateUserHandler())
	userRoutes.Get("/", auth.RequireProfile(models.ProfileAdmin), users.ListUsersHandler())
	userRoutes.Get("/:id", auth.RequireProfile(models.ProfileAdmin, models.ProfileDriver), users.GetUserHandler())
	userRoutes.Put("/:id", auth.RequireProfile(models.ProfileAdmin, models.ProfileDriver), users.UpdateUserHandler())
	userRoutes.Patch("/:id/status", auth.RequireProfile(models.ProfileAdmin), users.UpdateStatusHandler())

	productRoutes := protected.Group("/products")
	productRoutes.Post("/", auth.RequireProfile(models.ProfileBranch), inventory.CreateProductHandler())
	productRoutes.Get("/", auth.RequireProfile(models.ProfileBranch), inventory.ListProductsHandler())

	movementRoutes := protected.Group("/movements")
	movementRoutes.Post("/", auth.RequireProfile(models.ProfileBranch), movements.CreateMovementHandler())
	movementRoutes.Get("/", auth.RequireProfile(models.ProfileBranch, models.ProfileDriver), movements.ListMovementsHandler())
	movementRoutes.Patch("/:id/start", auth.RequireProfile(models.ProfileDriver), movements.StartMovementHandler())
	movementRoutes.Patch("/:id/end", auth.RequireProfile(models.ProfileDriver), movements.FinishMovementHandler())

	return app
}

// Domain errors arrive as *fiber.Error and map straight to the wire shape;
// anything else is logged and downgraded to a generic 500.
func errorHandler(c *fiber.Ctx, err error) error {
	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{
			"statusCode": e.Code,
			"message":    e.Message,
		})
	}
	log.Println("Unexpected error:", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"statusCode": fiber.StatusInternalServerError,
		"message":    "The request could not be processed",
	})
}
