package routes

import (
	"github.com/gofiber/fiber/v2"

	"cargoquote-backend/internal/handlers"
	"cargoquote-backend/internal/middleware"
)

// SetupRoutes configures all API routes.
func SetupRoutes(app *fiber.App, chat *handlers.ChatHandler, quote *handlers.QuoteHandler, health *handlers.HealthHandler, tariffBearer string) {

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "Cargo Insurance Quoting API",
			"version": "1.0.0",
			"endpoints": fiber.Map{
				"chat":   "/chat",
				"quote":  "/quote",
				"health": "/health",
			},
		})
	})

	app.Get("/health", health.HandleHealth)

	// Dialog turn endpoint
	app.Post("/chat", chat.HandleChat)

	// Rating endpoint; bearer-guarded when a token is configured
	app.Post("/quote", middleware.RequireBearer(tariffBearer), quote.HandleQuote)
}
