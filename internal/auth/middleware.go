package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"booking-escalator/internal/engine"
)

// InvokerMiddleware returns a Fiber middleware that requires a valid invoker
// JWT and stores its subject under the "invoker" local. An empty secret
// disables the check.
func InvokerMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}

		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return reject(c, "Missing invoker token")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return reject(c, "Invalid auth header format")
		}

		claims, err := ParseInvokerToken(parts[1], secret)
		if err != nil {
			return reject(c, "Invalid or expired invoker token")
		}

		c.Locals("invoker", claims.Subject)
		return c.Next()
	}
}

func reject(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(engine.Response{Success: false, Message: msg})
}

// GetInvoker returns the authenticated invoker subject, if any.
func GetInvoker(c *fiber.Ctx) string {
	s, _ := c.Locals("invoker").(string)
	return s
}
