package server

import (
	"time"

	"products/internal/config"
	"products/internal/handlers"
	"products/internal/middleware"
	"products/internal/repositories"
	"products/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// App is the HTTP application together with the services wired into it.
type App struct {
	Fiber    *fiber.App
	Products *services.ProductService
	Auth     *services.AuthService
}

// New wires services, handlers and middleware over repo. publisher may be nil,
// in which case update events are applied inline.
func New(cfg config.Config, repo repositories.ProductRepository, publisher services.EventPublisher) *App {
	productService := services.NewProductService(repo, publisher)
	authService := services.NewAuthService(cfg.AdminUsername, cfg.AdminPasswordHash, cfg.JWTSecret, cfg.TokenTTL)

	productHandler := handlers.NewProductHandler(productService)
	authHandler := handlers.NewAuthHandler(authService)

	app := fiber.New(fiber.Config{
		ProxyHeader: cfg.ProxyHeader,
	})
	app.Use(logger.New())

	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1,
		middleware.AuthRequired(authService),
		middleware.NewRateLimiter(cfg.EventRateLimit, cfg.EventRateBurst).Handler(),
	)

	broker := "disabled"
	if publisher != nil {
		broker = "enabled"
	}
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"broker": broker,
		})
	})

	return &App{
		Fiber:    app,
		Products: productService,
		Auth:     authService,
	}
}
