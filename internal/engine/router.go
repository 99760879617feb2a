package engine

import "github.com/gofiber/fiber/v2"

// RegisterRoutes mounts the health check and the function entrypoint. The
// middleware runs in front of the entrypoint only.
func RegisterRoutes(app *fiber.App, h *Handler, middleware ...fiber.Handler) {
	app.Get("/health", h.Health)

	handlers := make([]fiber.Handler, 0, len(middleware)+1)
	handlers = append(handlers, middleware...)
	handlers = append(handlers, h.Invoke)
	app.Post("/", handlers...)
}
